package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/service/prompt"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

var ErrEmptySummary = errors.New("model returned an empty summary")

// LLM asks a chat model to condense items with the context_summary prompt.
type LLM struct {
	ai      core.AIProvider
	prompts *prompt.Library
	counter core.TokenCounter
}

func NewLLM(ai core.AIProvider, prompts *prompt.Library, counter core.TokenCounter) *LLM {
	return &LLM{ai: ai, prompts: prompts, counter: counter}
}

func (s *LLM) Summarize(ctx context.Context, items []core.ContextItem, maxTokens int) (string, int, error) {
	messages, err := s.prompts.Render(prompt.ContextSummary, map[string]string{
		"items":      formatItems(items),
		"max_tokens": strconv.Itoa(maxTokens),
	})
	if err != nil {
		return "", 0, fmt.Errorf("render prompt: %w", err)
	}

	resp, err := s.ai.Chat(ctx, core.ChatRequest{Messages: messages, MaxTokens: maxTokens})
	if err != nil {
		return "", 0, fmt.Errorf("chat: %w", err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return "", 0, ErrEmptySummary
	}

	tokens := resp.Usage.CompletionTokens
	if tokens <= 0 {
		tokens = s.counter.CountTokens(text)
	}

	log.FromCtx(ctx).Debug().
		Int("items", len(items)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("tokens", tokens).
		Msg("llm summary received")
	return text, tokens, nil
}

func formatItems(items []core.ContextItem) string {
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("[")
		sb.WriteString(strings.ToUpper(string(it.Type)))
		if it.Source != "" {
			sb.WriteString(" ")
			sb.WriteString(it.Source)
		}
		sb.WriteString("]: ")
		sb.WriteString(strings.TrimSpace(it.Content))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
