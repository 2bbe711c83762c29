package contextmgr

import (
	"context"
	"sort"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

// PruningEngine removes items by explicit thresholds or, with none given,
// by the per-session capacity limit. It only runs when asked to.
type PruningEngine struct {
	store               *SessionStore
	clock               clock.Clock
	maxItems            int
	defaultMaxRelevance float64
}

func NewPruningEngine(store *SessionStore, maxItems int, defaultMaxRelevance float64, clk clock.Clock) (*PruningEngine, error) {
	if maxItems <= 0 {
		return nil, core.NewValidationError("max_items_per_session", "must be positive")
	}
	if err := core.ValidateRelevance(defaultMaxRelevance); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &PruningEngine{
		store:               store,
		clock:               clk,
		maxItems:            maxItems,
		defaultMaxRelevance: defaultMaxRelevance,
	}, nil
}

// Prune returns the ids it removed, in insertion order.
func (p *PruningEngine) Prune(ctx context.Context, sessionID string, opts core.PruneOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var removed []string
	err := p.store.write(sessionID, func(s *session) (bool, error) {
		if opts.HasThresholds() {
			removed = p.pruneByThresholds(s, opts)
		} else {
			removed = p.pruneByCapacity(s)
		}
		return len(removed) > 0, nil
	})
	if err != nil {
		return nil, err
	}

	if len(removed) > 0 {
		log.FromCtx(ctx).Info().
			Str("session_id", sessionID).
			Int("removed", len(removed)).
			Bool("thresholds", opts.HasThresholds()).
			Msg("context pruned")
	}
	return removed, nil
}

// pruneByThresholds removes items that are both older than MinAge and at
// or below MaxRelevance. A zero MinAge matches items of any age.
func (p *PruningEngine) pruneByThresholds(s *session, opts core.PruneOptions) []string {
	maxRelevance := p.defaultMaxRelevance
	if opts.MaxRelevance != nil {
		maxRelevance = *opts.MaxRelevance
	}
	now := p.clock.Now()

	return s.removeWhere(func(it core.ContextItem) bool {
		oldEnough := opts.MinAge == 0 || now.Sub(it.Timestamp) > opts.MinAge
		return oldEnough && it.Relevance <= maxRelevance
	})
}

// pruneByCapacity evicts lowest relevance first, oldest first among equals,
// until the session is back within maxItems.
func (p *PruningEngine) pruneByCapacity(s *session) []string {
	excess := len(s.items) - p.maxItems
	if excess <= 0 {
		return nil
	}

	order := make([]int, len(s.items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := s.items[order[a]], s.items[order[b]]
		if ia.Relevance != ib.Relevance {
			return ia.Relevance < ib.Relevance
		}
		return ia.Timestamp.Before(ib.Timestamp)
	})

	evict := make(map[string]struct{}, excess)
	for _, idx := range order[:excess] {
		evict[s.items[idx].ID] = struct{}{}
	}
	return s.removeWhere(func(it core.ContextItem) bool {
		_, ok := evict[it.ID]
		return ok
	})
}
