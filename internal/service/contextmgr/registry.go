package contextmgr

import (
	"slices"

	"github.com/google/uuid"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
)

// ItemRegistry is the only writer of session item lists. Input is
// validated before the session is touched, so a rejected call leaves no
// trace.
type ItemRegistry struct {
	store *SessionStore
	clock clock.Clock
}

func NewItemRegistry(store *SessionStore, clk clock.Clock) *ItemRegistry {
	if clk == nil {
		clk = clock.Real()
	}
	return &ItemRegistry{store: store, clock: clk}
}

func (r *ItemRegistry) Add(sessionID string, in core.NewItem) (core.ContextItem, error) {
	if err := in.Validate(); err != nil {
		return core.ContextItem{}, err
	}

	var added core.ContextItem
	err := r.store.write(sessionID, func(s *session) (bool, error) {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
			for _, taken := s.ids[id]; taken; _, taken = s.ids[id] {
				id = uuid.NewString()
			}
		} else if _, taken := s.ids[id]; taken {
			return false, core.NewValidationError("id", "item %q already exists in session", id)
		}

		item := core.ContextItem{
			ID:        id,
			Type:      in.Type,
			Content:   in.Content,
			Relevance: in.Relevance,
			Source:    in.Source,
			Timestamp: r.clock.Now(),
			Metadata:  core.CloneMetadata(in.Metadata),
		}
		s.items = append(s.items, item)
		s.ids[id] = struct{}{}
		added = item.Clone()
		return true, nil
	})
	if err != nil {
		return core.ContextItem{}, err
	}
	return added, nil
}

// Remove deletes itemID. Unknown item ids are a successful no-op; the
// returned flag says whether anything was removed.
func (r *ItemRegistry) Remove(sessionID, itemID string) (bool, error) {
	var removed bool
	err := r.store.write(sessionID, func(s *session) (bool, error) {
		idx := s.indexOf(itemID)
		if idx < 0 {
			return false, nil
		}
		s.items = slices.Delete(s.items, idx, idx+1)
		delete(s.ids, itemID)
		removed = true
		return true, nil
	})
	return removed, err
}

func (r *ItemRegistry) UpdateRelevance(sessionID, itemID string, relevance float64) (core.ContextItem, error) {
	if err := core.ValidateRelevance(relevance); err != nil {
		return core.ContextItem{}, err
	}

	var updated core.ContextItem
	err := r.store.write(sessionID, func(s *session) (bool, error) {
		idx := s.indexOf(itemID)
		if idx < 0 {
			return false, core.ItemNotFound(itemID)
		}
		s.items[idx].Relevance = relevance
		updated = s.items[idx].Clone()
		return true, nil
	})
	if err != nil {
		return core.ContextItem{}, err
	}
	return updated, nil
}
