package summarizer

import (
	"context"
	"strings"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/tokens"
)

const DefaultSentencesPerItem = 2

// Extractive keeps the leading sentences of each item, in the given order,
// while they fit the budget. It needs no model and never exceeds maxTokens.
type Extractive struct {
	counter          core.TokenCounter
	sentencesPerItem int
}

func NewExtractive(counter core.TokenCounter, sentencesPerItem int) *Extractive {
	if sentencesPerItem <= 0 {
		sentencesPerItem = DefaultSentencesPerItem
	}
	return &Extractive{counter: counter, sentencesPerItem: sentencesPerItem}
}

func (e *Extractive) Summarize(ctx context.Context, items []core.ContextItem, maxTokens int) (string, int, error) {
	var lines []string
	used := 0

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		sentences := tokens.SplitSentences(it.Content)
		if len(sentences) > e.sentencesPerItem {
			sentences = sentences[:e.sentencesPerItem]
		}
		if len(sentences) == 0 {
			continue
		}
		line := "- " + strings.Join(sentences, " ")

		candidate := strings.Join(append(lines, line), "\n")
		n := e.counter.CountTokens(candidate)
		if n > maxTokens {
			break
		}
		lines = append(lines, line)
		used = n
	}

	if len(lines) == 0 && len(items) > 0 {
		text := e.fitWords(items[0].Content, maxTokens)
		return text, e.counter.CountTokens(text), nil
	}
	return strings.Join(lines, "\n"), used, nil
}

// fitWords keeps as many leading words of content as fit maxTokens.
func (e *Extractive) fitWords(content string, maxTokens int) string {
	words := strings.Fields(content)
	lo, hi := 0, len(words)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if e.counter.CountTokens(strings.Join(words[:mid], " ")) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.Join(words[:lo], " ")
}
