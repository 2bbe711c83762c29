package contextmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

var errNoSummarizer = errors.New("no summarizer configured")

type cachedSummary struct {
	maxTokens int
	version   uint64
	summary   core.Summary
}

// SummarizationCoordinator picks the highest-relevance items that fit a
// token budget and hands them to the external summarizer.
type SummarizationCoordinator struct {
	store      *SessionStore
	summarizer core.Summarizer
	counter    core.TokenCounter
	clock      clock.Clock
	timeout    time.Duration

	cacheEnabled bool
	cacheMu      sync.Mutex
	cache        map[string]cachedSummary
}

func NewSummarizationCoordinator(
	store *SessionStore,
	summarizer core.Summarizer,
	counter core.TokenCounter,
	timeout time.Duration,
	cacheEnabled bool,
	clk clock.Clock,
) (*SummarizationCoordinator, error) {
	if counter == nil {
		return nil, errors.New("token counter is required")
	}
	if timeout <= 0 {
		return nil, core.NewValidationError("summarizer_timeout", "must be positive")
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &SummarizationCoordinator{
		store:        store,
		summarizer:   summarizer,
		counter:      counter,
		clock:        clk,
		timeout:      timeout,
		cacheEnabled: cacheEnabled,
		cache:        make(map[string]cachedSummary),
	}, nil
}

func (c *SummarizationCoordinator) Summarize(ctx context.Context, sessionID string, maxTokens int) (*core.Summary, error) {
	if maxTokens <= 0 {
		return nil, core.NewValidationError("max_tokens", "must be positive, got %d", maxTokens)
	}

	items, version, err := c.rankedItems(sessionID)
	if err != nil {
		return nil, err
	}

	if cached, ok := c.cached(sessionID, maxTokens, version); ok {
		log.FromCtx(ctx).Debug().Str("session_id", sessionID).Msg("summary served from cache")
		return cached, nil
	}

	selected := c.selectWithinBudget(items, maxTokens)
	sourceIDs := make([]string, len(selected))
	for i, it := range selected {
		sourceIDs[i] = it.ID
	}

	summary := &core.Summary{
		Timestamp:   c.clock.Now(),
		SourceItems: sourceIDs,
	}
	if len(selected) == 0 {
		return summary, nil
	}

	text, tokens, err := c.callSummarizer(ctx, selected, maxTokens)
	if err == nil && tokens > maxTokens {
		err = fmt.Errorf("summarizer reported %d tokens, budget is %d", tokens, maxTokens)
	}
	if err != nil {
		log.FromCtx(ctx).Error().
			Err(err).
			Str("session_id", sessionID).
			Int("items", len(selected)).
			Msg("summarization failed")
		return nil, &core.SummarizationError{SessionID: sessionID, Cause: err}
	}

	summary.Text = text
	summary.Tokens = tokens
	c.remember(sessionID, maxTokens, version, *summary)

	log.FromCtx(ctx).Info().
		Str("session_id", sessionID).
		Int("items", len(selected)).
		Int("tokens", tokens).
		Msg("context summary generated")
	return summary, nil
}

// rankedItems copies the session's items under the read lock and orders
// them by stored relevance, newest first among equals.
func (c *SummarizationCoordinator) rankedItems(sessionID string) ([]core.ContextItem, uint64, error) {
	var (
		items   []core.ContextItem
		version uint64
	)
	err := c.store.read(sessionID, func(s *session) error {
		items = make([]core.ContextItem, len(s.items))
		for i, it := range s.items {
			items[i] = it.Clone()
		}
		version = s.version
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Relevance != items[b].Relevance {
			return items[a].Relevance > items[b].Relevance
		}
		return items[a].Timestamp.After(items[b].Timestamp)
	})
	return items, version, nil
}

// selectWithinBudget returns the longest prefix whose summed token cost fits
// maxTokens. Selection stops at the first item that would overflow; items
// are never cut to fit.
func (c *SummarizationCoordinator) selectWithinBudget(items []core.ContextItem, maxTokens int) []core.ContextItem {
	used := 0
	for i, it := range items {
		cost := c.counter.CountTokens(it.Content)
		if used+cost > maxTokens {
			return items[:i]
		}
		used += cost
	}
	return items
}

func (c *SummarizationCoordinator) callSummarizer(ctx context.Context, items []core.ContextItem, maxTokens int) (string, int, error) {
	if c.summarizer == nil {
		return "", 0, errNoSummarizer
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		text   string
		tokens int
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		text, tokens, err := c.summarizer.Summarize(ctx, items, maxTokens)
		done <- outcome{text: text, tokens: tokens, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.tokens, out.err
	case <-ctx.Done():
		return "", 0, fmt.Errorf("summarizer: %w", ctx.Err())
	}
}

// cached returns a previous summary when the session has not changed since
// and every source item is still present.
func (c *SummarizationCoordinator) cached(sessionID string, maxTokens int, version uint64) (*core.Summary, bool) {
	if !c.cacheEnabled {
		return nil, false
	}

	c.cacheMu.Lock()
	entry, ok := c.cache[sessionID]
	c.cacheMu.Unlock()
	if !ok || entry.maxTokens != maxTokens || entry.version != version {
		return nil, false
	}

	fresh := true
	err := c.store.read(sessionID, func(s *session) error {
		for _, id := range entry.summary.SourceItems {
			if _, ok := s.ids[id]; !ok {
				fresh = false
				return nil
			}
		}
		return nil
	})
	if err != nil || !fresh {
		c.forget(sessionID)
		return nil, false
	}

	out := entry.summary
	out.SourceItems = append([]string(nil), entry.summary.SourceItems...)
	return &out, true
}

func (c *SummarizationCoordinator) remember(sessionID string, maxTokens int, version uint64, summary core.Summary) {
	if !c.cacheEnabled {
		return
	}
	summary.SourceItems = append([]string(nil), summary.SourceItems...)

	c.cacheMu.Lock()
	c.cache[sessionID] = cachedSummary{maxTokens: maxTokens, version: version, summary: summary}
	c.cacheMu.Unlock()
}

// invalidate drops a cached summary that lists any of itemIDs.
func (c *SummarizationCoordinator) invalidate(sessionID string, itemIDs []string) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	entry, ok := c.cache[sessionID]
	if !ok {
		return
	}
	gone := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		gone[id] = struct{}{}
	}
	for _, id := range entry.summary.SourceItems {
		if _, ok := gone[id]; ok {
			delete(c.cache, sessionID)
			return
		}
	}
}

func (c *SummarizationCoordinator) forget(sessionID string) {
	c.cacheMu.Lock()
	delete(c.cache, sessionID)
	c.cacheMu.Unlock()
}
