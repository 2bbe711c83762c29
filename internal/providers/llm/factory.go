package llm

import (
	"context"
	"fmt"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

const (
	ProviderNone       = "none"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderCustom     = "custom"
)

// NewProvider creates the appropriate AIProvider based on configuration.
func NewProvider(ctx context.Context, cfg core.LLMConfig) (core.AIProvider, error) {
	switch cfg.GetProvider() {
	case "", ProviderNone:
		return nil, ErrNoProvider
	case ProviderAnthropic:
		log.FromCtx(ctx).Info().
			Str("provider", cfg.GetProvider()).
			Str("model", cfg.GetModel()).
			Msg("starting llm provider")
		return NewAnthropic(cfg.GetAPIKey(), cfg.GetModel()), nil
	}

	p, err := newOpenAICompatibleProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")
	return p, nil
}

// NewEmbedder returns the provider's /v1/embeddings client. Anthropic has no
// embeddings endpoint.
func NewEmbedder(ctx context.Context, cfg core.LLMConfig) (core.Embedder, error) {
	switch cfg.GetProvider() {
	case "", ProviderNone:
		return nil, ErrNoProvider
	case ProviderAnthropic:
		return nil, fmt.Errorf("provider %s does not serve embeddings", cfg.GetProvider())
	}
	if cfg.GetEmbeddingModel() == "" {
		return nil, fmt.Errorf("LLM_EMBEDDING_MODEL is required for provider %s", cfg.GetProvider())
	}

	p, err := newOpenAICompatibleProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetEmbeddingModel()).
		Msg("starting embedding provider")
	return p, nil
}

type openAIStyle interface {
	core.AIProvider
	core.Embedder
}

func newOpenAICompatibleProvider(cfg core.LLMConfig) (openAIStyle, error) {
	switch cfg.GetProvider() {
	case ProviderOpenAI:
		return NewOpenAI(cfg.GetAPIKey(), cfg.GetModel(), cfg.GetEmbeddingModel()), nil
	case ProviderOpenRouter:
		return NewOpenRouter(cfg.GetAPIKey(), cfg.GetModel(), cfg.GetEmbeddingModel()), nil
	case ProviderOllama:
		return NewOllama(cfg.GetBaseURL(), cfg.GetAPIKey(), cfg.GetModel(), cfg.GetEmbeddingModel()), nil
	case ProviderCustom:
		if cfg.GetBaseURL() == "" {
			return nil, fmt.Errorf("LLM_BASE_URL is required for provider %s", ProviderCustom)
		}
		return NewCustomOpenAI(cfg.GetBaseURL(), cfg.GetAPIKey(), cfg.GetModel(), cfg.GetEmbeddingModel()), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
