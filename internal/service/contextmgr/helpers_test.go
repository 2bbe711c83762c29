package contextmgr

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
)

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type testConfig struct {
	maxItems          int
	storedWeight      float64
	queryWeight       float64
	scorerTimeout     time.Duration
	concurrency       int
	summarizerTimeout time.Duration
	defaultRelevance  float64
	pruneMaxRelevance float64
	summaryCache      bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		maxItems:          500,
		storedWeight:      0.5,
		queryWeight:       0.5,
		scorerTimeout:     200 * time.Millisecond,
		concurrency:       4,
		summarizerTimeout: 200 * time.Millisecond,
		defaultRelevance:  0.5,
		pruneMaxRelevance: 0.1,
		summaryCache:      true,
	}
}

func (c *testConfig) GetMaxItemsPerSession() int           { return c.maxItems }
func (c *testConfig) GetStoredWeight() float64             { return c.storedWeight }
func (c *testConfig) GetQueryWeight() float64              { return c.queryWeight }
func (c *testConfig) GetScorerTimeout() time.Duration      { return c.scorerTimeout }
func (c *testConfig) GetScorerConcurrency() int            { return c.concurrency }
func (c *testConfig) GetSummarizerTimeout() time.Duration  { return c.summarizerTimeout }
func (c *testConfig) GetDefaultItemRelevance() float64     { return c.defaultRelevance }
func (c *testConfig) GetDefaultPruneMaxRelevance() float64 { return c.pruneMaxRelevance }
func (c *testConfig) IsSummaryCacheEnabled() bool          { return c.summaryCache }

type scorerFunc func(ctx context.Context, query, content string) (float64, error)

func (f scorerFunc) Score(ctx context.Context, query, content string) (float64, error) {
	return f(ctx, query, content)
}

// overlapScorer returns the share of query words found in the content.
var overlapScorer = scorerFunc(func(_ context.Context, query, content string) (float64, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0, nil
	}
	content = strings.ToLower(content)
	hits := 0
	for _, w := range words {
		if strings.Contains(content, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words)), nil
})

func constantScorer(v float64) scorerFunc {
	return func(context.Context, string, string) (float64, error) { return v, nil }
}

var failingScorer = scorerFunc(func(context.Context, string, string) (float64, error) {
	return 0, errors.New("scorer offline")
})

var blockingScorer = scorerFunc(func(ctx context.Context, _, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
})

// recordingSummarizer joins item contents and reports one token per word.
type recordingSummarizer struct {
	calls atomic.Int32
	err   error
	extra int
	block bool

	mu   sync.Mutex
	seen [][]string
}

func (s *recordingSummarizer) Summarize(ctx context.Context, items []core.ContextItem, maxTokens int) (string, int, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	if s.err != nil {
		return "", 0, s.err
	}

	ids := make([]string, len(items))
	parts := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
		parts[i] = it.Content
	}
	s.mu.Lock()
	s.seen = append(s.seen, ids)
	s.mu.Unlock()

	text := strings.Join(parts, " ")
	return text, len(strings.Fields(text)) + s.extra, nil
}

// wordCounter charges one token per whitespace separated word.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

type memRepo struct {
	mu       sync.Mutex
	sessions map[string]core.Session
	saveErr  error
	saves    int
	deleted  []string
}

func newMemRepo(sessions ...core.Session) *memRepo {
	r := &memRepo{sessions: make(map[string]core.Session)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *memRepo) SaveSession(_ context.Context, s core.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.sessions[s.ID] = s
	return nil
}

func (r *memRepo) LoadSessions(context.Context) ([]core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r *memRepo) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memRepo) get(id string) (core.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// gatedRepo holds every SaveSession until release is closed.
type gatedRepo struct {
	*memRepo
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{
		memRepo: newMemRepo(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *gatedRepo) SaveSession(ctx context.Context, s core.Session) error {
	r.once.Do(func() { close(r.entered) })
	<-r.release
	return r.memRepo.SaveSession(ctx, s)
}

type testEnv struct {
	manager    *Manager
	clock      *clock.FakeClock
	summarizer *recordingSummarizer
}

func newTestEnv(t *testing.T, cfg *testConfig, scorer core.Scorer, opts ...Option) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = newTestConfig()
	}
	clk := clock.Fake(testEpoch)
	summarizer := &recordingSummarizer{}

	opts = append([]Option{WithClock(clk)}, opts...)
	m, err := NewManager(cfg, scorer, summarizer, wordCounter{}, opts...)
	require.NoError(t, err)

	return &testEnv{manager: m, clock: clk, summarizer: summarizer}
}

func (e *testEnv) session(t *testing.T) string {
	t.Helper()
	s, err := e.manager.CreateSession(context.Background(), "p1", nil)
	require.NoError(t, err)
	return s.ID
}

func (e *testEnv) add(t *testing.T, sessionID string, typ core.ItemType, content string, relevance float64) core.ContextItem {
	t.Helper()
	it, err := e.manager.AddContextItem(context.Background(), sessionID, core.NewItem{
		Type:      typ,
		Content:   content,
		Relevance: relevance,
	})
	require.NoError(t, err)
	return *it
}

func itemIDs(items []core.ContextItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func scoredIDs(items []core.ScoredItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func ptr[T any](v T) *T {
	return &v
}
