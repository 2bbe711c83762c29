package llm

type CustomOpenAI struct {
	*OpenAICompatible
}

func NewCustomOpenAI(baseURL, apiKey, model, embeddingModel string) *CustomOpenAI {
	return &CustomOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:        baseURL,
			APIKey:         apiKey,
			Model:          model,
			EmbeddingModel: embeddingModel,
			AuthHeader:     "Authorization",
			AuthPrefix:     "Bearer ",
		}),
	}
}
