package llm

import "github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"

type OpenRouter struct {
	*OpenAICompatible
}

func NewOpenRouter(apiKey, model, embeddingModel string) *OpenRouter {
	return &OpenRouter{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:        "https://openrouter.ai/api",
			APIKey:         apiKey,
			Model:          model,
			EmbeddingModel: embeddingModel,
			AuthHeader:     "Authorization",
			AuthPrefix:     "Bearer ",
			ExtraHeaders: map[string]string{
				"HTTP-Referer": core.AppRepositoryURL,
				"X-Title":      core.AppName,
			},
		}),
	}
}
