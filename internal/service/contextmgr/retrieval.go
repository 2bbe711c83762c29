package contextmgr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
	"golang.org/x/sync/errgroup"
)

var errNoScorer = errors.New("no scorer configured")

// Ranking holds the tunables of the combined score
// StoredWeight*relevance + QueryWeight*queryScore.
type Ranking struct {
	StoredWeight float64
	QueryWeight  float64
	Timeout      time.Duration
	Concurrency  int
}

func (r Ranking) validate() error {
	if r.StoredWeight < 0 || r.QueryWeight < 0 {
		return core.NewValidationError("weights", "must not be negative")
	}
	if r.StoredWeight == 0 && r.QueryWeight == 0 {
		return core.NewValidationError("weights", "stored and query weight cannot both be zero")
	}
	if r.Timeout <= 0 {
		return core.NewValidationError("scorer_timeout", "must be positive")
	}
	if r.Concurrency <= 0 {
		return core.NewValidationError("scorer_concurrency", "must be positive")
	}
	return nil
}

// RetrievalEngine ranks a session's items against a query.
type RetrievalEngine struct {
	store   *SessionStore
	scorer  core.Scorer
	clock   clock.Clock
	ranking Ranking
}

func NewRetrievalEngine(store *SessionStore, scorer core.Scorer, ranking Ranking, clk clock.Clock) (*RetrievalEngine, error) {
	if err := ranking.validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &RetrievalEngine{
		store:   store,
		scorer:  scorer,
		clock:   clk,
		ranking: ranking,
	}, nil
}

func (e *RetrievalEngine) Retrieve(ctx context.Context, sessionID, query string, opts core.RetrieveOptions) (*core.RetrievalResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates, err := e.candidates(sessionID, opts)
	if err != nil {
		return nil, err
	}

	result := &core.RetrievalResult{}
	ranked := make([]core.ScoredItem, len(candidates))

	var queryScores []float64
	if strings.TrimSpace(query) != "" && len(candidates) > 0 {
		queryScores, err = e.scoreAll(ctx, query, candidates)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("retrieve: %w", ctx.Err())
			}
			result.Warning = &core.DegradedRetrievalWarning{SessionID: sessionID, Cause: err}
			log.FromCtx(ctx).Warn().
				Err(err).
				Str("session_id", sessionID).
				Int("candidates", len(candidates)).
				Msg("scorer unavailable, ranking by stored relevance")
		}
	}

	for i, it := range candidates {
		score := it.Relevance
		if queryScores != nil {
			score = e.ranking.StoredWeight*it.Relevance + e.ranking.QueryWeight*queryScores[i]
		}
		ranked[i] = core.ScoredItem{ContextItem: it, Score: score}
	}

	sortByScore(ranked)

	if opts.MaxItems > 0 && len(ranked) > opts.MaxItems {
		ranked = ranked[:opts.MaxItems]
	}
	result.Items = ranked

	log.FromCtx(ctx).Debug().
		Str("session_id", sessionID).
		Int("candidates", len(candidates)).
		Int("returned", len(ranked)).
		Bool("degraded", result.Degraded()).
		Msg("context retrieved")
	return result, nil
}

// candidates copies the items passing the type, relevance, age and metadata
// filters. The session lock is held only for the copy.
func (e *RetrievalEngine) candidates(sessionID string, opts core.RetrieveOptions) ([]core.ContextItem, error) {
	include := typeSet(opts.IncludeTypes)
	exclude := typeSet(opts.ExcludeTypes)
	now := e.clock.Now()

	var out []core.ContextItem
	err := e.store.read(sessionID, func(s *session) error {
		for _, it := range s.items {
			if include != nil {
				if _, ok := include[it.Type]; !ok {
					continue
				}
			}
			if _, ok := exclude[it.Type]; ok {
				continue
			}
			if it.Relevance < opts.MinRelevance {
				continue
			}
			if opts.MaxAge > 0 && now.Sub(it.Timestamp) > opts.MaxAge {
				continue
			}
			if !matchesWhere(it.Metadata, opts.Where) {
				continue
			}
			out = append(out, it.Clone())
		}
		return nil
	})
	return out, err
}

// scoreAll queries the scorer for every candidate under one deadline. Any
// failure, timeout or out-of-range value fails the whole pass.
func (e *RetrievalEngine) scoreAll(ctx context.Context, query string, items []core.ContextItem) ([]float64, error) {
	if e.scorer == nil {
		return nil, errNoScorer
	}

	ctx, cancel := context.WithTimeout(ctx, e.ranking.Timeout)
	defer cancel()

	scores := make([]float64, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.ranking.Concurrency)

	done := make(chan error, 1)
	go func() {
		for i := range items {
			g.Go(func() error {
				s, err := e.scorer.Score(gctx, query, items[i].Content)
				if err != nil {
					return fmt.Errorf("score item %s: %w", items[i].ID, err)
				}
				if math.IsNaN(s) || s < 0 || s > 1 {
					return fmt.Errorf("score item %s: value %v outside [0,1]", items[i].ID, s)
				}
				scores[i] = s
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return scores, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("scorer: %w", ctx.Err())
	}
}

// sortByScore orders by score desc, then newest first. The sort is stable so
// remaining ties keep insertion order.
func sortByScore(items []core.ScoredItem) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Score != items[b].Score {
			return items[a].Score > items[b].Score
		}
		return items[a].Timestamp.After(items[b].Timestamp)
	})
}

func typeSet(types []core.ItemType) map[core.ItemType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[core.ItemType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

func matchesWhere(metadata, where map[string]string) bool {
	for k, want := range where {
		got, ok := metadata[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}
