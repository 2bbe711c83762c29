package llm

type Ollama struct {
	*OpenAICompatible
}

// NewOllama talks to Ollama's OpenAI-compatible endpoints.
func NewOllama(baseURL, apiKey, model, embeddingModel string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
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
