package core

import "context"

// Scorer returns a query-specific relevance signal in [0,1]. A returned
// error means the score is unavailable, which is distinct from a low score.
type Scorer interface {
	Score(ctx context.Context, query, content string) (float64, error)
}

// Summarizer turns ordered items into text and reports the actual token
// count of that text.
type Summarizer interface {
	Summarize(ctx context.Context, items []ContextItem, maxTokens int) (string, int, error)
}

type TokenCounter interface {
	CountTokens(text string) int
}

type AIProvider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages  []Message
	MaxTokens int
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type ChatResponse struct {
	Message Message
	Usage   Usage
}
