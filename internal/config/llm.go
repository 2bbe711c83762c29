package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

// LLMConfig selects the provider behind the LLM summarizer and the
// embedding scorer. Provider "none" keeps everything local.
type LLMConfig struct {
	Provider       string `env:"LLM_PROVIDER" envDefault:"none"`
	Model          string `env:"LLM_MODEL"`
	APIKey         string `env:"LLM_API_KEY"`
	BaseURL        string `env:"LLM_BASE_URL"`
	EmbeddingModel string `env:"LLM_EMBEDDING_MODEL"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func DefaultLLMConfig() *LLMConfig {
	c := &LLMConfig{}
	if err := env.ParseWithOptions(c, env.Options{Environment: map[string]string{}}); err != nil {
		panic(err)
	}
	return c
}

func (c LLMConfig) GetProvider() string       { return c.Provider }
func (c LLMConfig) GetModel() string          { return c.Model }
func (c LLMConfig) GetAPIKey() string         { return c.APIKey }
func (c LLMConfig) GetBaseURL() string        { return c.BaseURL }
func (c LLMConfig) GetEmbeddingModel() string { return c.EmbeddingModel }
