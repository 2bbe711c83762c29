package llm

// OpenAI provider is implemented using OpenAICompatible.
type OpenAI struct {
	*OpenAICompatible
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(apiKey, model, embeddingModel string) *OpenAI {
	return &OpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:        "https://api.openai.com",
			APIKey:         apiKey,
			Model:          model,
			EmbeddingModel: embeddingModel,
			AuthHeader:     "Authorization",
			AuthPrefix:     "Bearer ",
		}),
	}
}
