package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

func TestOpenAICompatible_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "vibectx", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "summary text"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 14}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:      srv.URL,
		APIKey:       "secret",
		Model:        "gpt-test",
		AuthHeader:   "Authorization",
		AuthPrefix:   "Bearer ",
		ExtraHeaders: map[string]string{"X-Title": "vibectx"},
	})

	resp, err := p.Chat(context.Background(), core.ChatRequest{
		Messages:  []core.Message{{Role: core.RoleUser, Content: "hi"}},
		MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "summary text", resp.Message.Content)
	assert.Equal(t, 14, resp.Usage.CompletionTokens)
	assert.Equal(t, 120, resp.Usage.PromptTokens)

	assert.Equal(t, "gpt-test", got["model"])
	assert.EqualValues(t, 64, got["max_tokens"])
}

func TestOpenAICompatible_Retries(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantAttempts int32
	}{
		{name: "server_error_retried", status: http.StatusBadGateway, wantAttempts: 2},
		{name: "rate_limit_retried", status: http.StatusTooManyRequests, wantAttempts: 2},
		{name: "client_error_not_retried", status: http.StatusUnauthorized, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(`{"error":"nope"}`))
					return
				}
				_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
			}))
			defer srv.Close()

			p := NewCustomOpenAI(srv.URL, "", "m", "")
			_, err := p.Chat(context.Background(), core.ChatRequest{Messages: []core.Message{{Role: core.RoleUser, Content: "x"}}})

			assert.Equal(t, tt.wantAttempts, attempts.Load())
			if tt.wantAttempts == 1 {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "http 401")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOpenAICompatible_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "embed-small", body["model"])
		assert.Equal(t, "hello", body["input"])

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	p := NewOllama(srv.URL, "", "llama", "embed-small")
	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	_, err = NewOllama(srv.URL, "", "llama", "").Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestAnthropic_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "part one "}, {"type": "text", "text": "part two"}],
			"usage": {"input_tokens": 50, "output_tokens": 6}
		}`))
	}))
	defer srv.Close()

	a := NewAnthropic("key", "claude-test")
	a.baseURL = srv.URL

	resp, err := a.Chat(context.Background(), core.ChatRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "be brief"},
			{Role: core.RoleUser, Content: "summarize"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", resp.Message.Content)
	assert.Equal(t, core.RoleAssistant, resp.Message.Role)
	assert.Equal(t, 6, resp.Usage.CompletionTokens)

	assert.Equal(t, "be brief", got["system"])
	assert.EqualValues(t, anthropicDefaultMaxTokens, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		cfg          config.LLMConfig
		wantProvider bool
		wantEmbedder bool
		noProvider   bool
	}{
		{name: "none", cfg: config.LLMConfig{Provider: "none"}, noProvider: true},
		{name: "openai", cfg: config.LLMConfig{Provider: "openai", Model: "m", EmbeddingModel: "e"}, wantProvider: true, wantEmbedder: true},
		{name: "anthropic_has_no_embeddings", cfg: config.LLMConfig{Provider: "anthropic", Model: "m", EmbeddingModel: "e"}, wantProvider: true},
		{name: "ollama_without_embedding_model", cfg: config.LLMConfig{Provider: "ollama", Model: "m"}, wantProvider: true},
		{name: "custom_requires_base_url", cfg: config.LLMConfig{Provider: "custom", Model: "m", EmbeddingModel: "e"}},
		{name: "unknown", cfg: config.LLMConfig{Provider: "mystery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.cfg)
			if tt.noProvider {
				assert.True(t, errors.Is(err, ErrNoProvider))
			}
			assert.Equal(t, tt.wantProvider, err == nil && p != nil)

			e, err := NewEmbedder(ctx, tt.cfg)
			assert.Equal(t, tt.wantEmbedder, err == nil && e != nil)
		})
	}
}
