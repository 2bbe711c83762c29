package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

type OpenAICompatible struct {
	baseProvider
	embeddingModel string
	authHeader     string
	authPrefix     string
	extraHeaders   map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	AuthHeader     string // e.g., "Authorization"
	AuthPrefix     string // e.g., "Bearer "
	ExtraHeaders   map[string]string
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider:   newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model),
		embeddingModel: cfg.EmbeddingModel,
		authHeader:     cfg.AuthHeader,
		authPrefix:     cfg.AuthPrefix,
		extraHeaders:   cfg.ExtraHeaders,
	}
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (o *OpenAICompatible) Chat(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	payload := map[string]any{
		"model":    o.model,
		"messages": req.Messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}

	var result struct {
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
		Usage core.Usage `json:"usage"`
	}
	if err := o.postJSON(ctx, "/v1/chat/completions", payload, o.headers(), &result); err != nil {
		return core.ChatResponse{}, err
	}
	if len(result.Choices) == 0 {
		return core.ChatResponse{}, errors.New("empty choices")
	}

	return core.ChatResponse{
		Message: result.Choices[0].Message,
		Usage:   result.Usage,
	}, nil
}

// Embed calls /v1/embeddings with the configured embedding model.
func (o *OpenAICompatible) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.embeddingModel == "" {
		return nil, errors.New("embedding model is not configured")
	}

	payload := map[string]any{
		"model": o.embeddingModel,
		"input": text,
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := o.postJSON(ctx, "/v1/embeddings", payload, o.headers(), &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding for model %s", o.embeddingModel)
	}
	return result.Data[0].Embedding, nil
}
