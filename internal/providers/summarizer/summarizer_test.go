package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/prompt"
)

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

type fakeAI struct {
	resp core.ChatResponse
	err  error
	req  core.ChatRequest
}

func (f *fakeAI) Chat(_ context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	f.req = req
	return f.resp, f.err
}

func items() []core.ContextItem {
	return []core.ContextItem{
		{ID: "a", Type: core.ItemTypeConversation, Source: "conversation:user", Content: "The login page crashes. It happens on submit. Only in Safari."},
		{ID: "b", Type: core.ItemTypeCode, Source: "auth/login.go", Content: "func Login() error { return nil }"},
	}
}

func TestLLM_Summarize(t *testing.T) {
	prompts, err := prompt.Load("")
	require.NoError(t, err)

	tests := []struct {
		name       string
		resp       core.ChatResponse
		err        error
		wantText   string
		wantTokens int
		wantErr    bool
	}{
		{
			name: "usage_reported",
			resp: core.ChatResponse{
				Message: core.Message{Role: core.RoleAssistant, Content: "  Login crashes in Safari.  "},
				Usage:   core.Usage{PromptTokens: 90, CompletionTokens: 6},
			},
			wantText:   "Login crashes in Safari.",
			wantTokens: 6,
		},
		{
			name:       "usage_missing_falls_back_to_counter",
			resp:       core.ChatResponse{Message: core.Message{Content: "Login crashes in Safari."}},
			wantText:   "Login crashes in Safari.",
			wantTokens: 4,
		},
		{
			name:    "empty_reply",
			resp:    core.ChatResponse{Message: core.Message{Content: "   "}},
			wantErr: true,
		},
		{
			name:    "provider_error",
			err:     errors.New("503"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAI{resp: tt.resp, err: tt.err}
			s := NewLLM(ai, prompts, wordCounter{})

			text, tokens, err := s.Summarize(context.Background(), items(), 50)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantTokens, tokens)

			assert.Equal(t, 50, ai.req.MaxTokens)
			require.Len(t, ai.req.Messages, 2)
			user := ai.req.Messages[1].Content
			assert.Contains(t, user, "at most 50 tokens")
			assert.Contains(t, user, "[CONVERSATION conversation:user]: The login page crashes.")
			assert.Contains(t, user, "[CODE auth/login.go]: func Login()")
		})
	}
}

func TestExtractive_Summarize(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		perItem   int
		want      string
	}{
		{
			name:      "both_items_fit",
			maxTokens: 100,
			want:      "- The login page crashes. It happens on submit.\n- func Login() error { return nil }",
		},
		{
			name:      "second_item_over_budget",
			maxTokens: 12,
			want:      "- The login page crashes. It happens on submit.",
		},
		{
			name:      "one_sentence_per_item",
			maxTokens: 100,
			perItem:   1,
			want:      "- The login page crashes.\n- func Login() error { return nil }",
		},
		{
			name:      "nothing_fits_truncates_words",
			maxTokens: 3,
			want:      "The login page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewExtractive(wordCounter{}, tt.perItem)
			text, tokens, err := s.Summarize(context.Background(), items(), tt.maxTokens)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, wordCounter{}.CountTokens(tt.want), tokens)
			assert.LessOrEqual(t, tokens, tt.maxTokens)
		})
	}
}

func TestExtractive_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewExtractive(wordCounter{}, 0).Summarize(ctx, items(), 100)
	assert.ErrorIs(t, err, context.Canceled)
}
