package contextmgr

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

func TestAddContextItem_Relevance(t *testing.T) {
	tests := []struct {
		name      string
		relevance float64
		wantErr   bool
	}{
		{name: "lower_bound", relevance: 0},
		{name: "upper_bound", relevance: 1},
		{name: "middle", relevance: 0.42},
		{name: "below_range", relevance: -0.1, wantErr: true},
		{name: "above_range", relevance: 1.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, overlapScorer)
			ctx := context.Background()
			sid := env.session(t)
			before, err := env.manager.GetSession(ctx, sid)
			require.NoError(t, err)

			env.clock.Advance(time.Minute)
			item, err := env.manager.AddContextItem(ctx, sid, core.NewItem{
				Type:      core.ItemTypeConversation,
				Content:   "hello",
				Relevance: tt.relevance,
			})

			after, getErr := env.manager.GetSession(ctx, sid)
			require.NoError(t, getErr)

			if tt.wantErr {
				assert.True(t, core.IsValidation(err))
				assert.Nil(t, item)
				assert.Empty(t, after.Items)
				assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.relevance, item.Relevance)
			assert.Equal(t, env.clock.Now(), item.Timestamp)
			assert.Equal(t, env.clock.Now(), after.UpdatedAt)
			require.Len(t, after.Items, 1)
		})
	}
}

func TestAddContextItem_Validation(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	ctx := context.Background()
	sid := env.session(t)

	tests := []struct {
		name      string
		sessionID string
		item      core.NewItem
		checkFn   func(error) bool
	}{
		{
			name:      "unknown_type",
			sessionID: sid,
			item:      core.NewItem{Type: "binary", Relevance: 0.5},
			checkFn:   core.IsValidation,
		},
		{
			name:      "empty_session_id",
			sessionID: "",
			item:      core.NewItem{Type: core.ItemTypeCode, Relevance: 0.5},
			checkFn:   core.IsValidation,
		},
		{
			name:      "unknown_session",
			sessionID: "nope",
			item:      core.NewItem{Type: core.ItemTypeCode, Relevance: 0.5},
			checkFn:   core.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.manager.AddContextItem(ctx, tt.sessionID, tt.item)
			require.Error(t, err)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}
}

func TestAddContextItem_DistinctIDs(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	sid := env.session(t)

	a := env.add(t, sid, core.ItemTypeCode, "a", 0.5)
	b := env.add(t, sid, core.ItemTypeCode, "b", 0.5)

	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddContextItem_ExplicitID(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	ctx := context.Background()
	sid := env.session(t)

	item, err := env.manager.AddContextItem(ctx, sid, core.NewItem{
		ID: "feat-1", Type: core.ItemTypeFeature, Content: "login", Relevance: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "feat-1", item.ID)

	_, err = env.manager.AddContextItem(ctx, sid, core.NewItem{
		ID: "feat-1", Type: core.ItemTypeFeature, Content: "logout", Relevance: 0.7,
	})
	assert.True(t, core.IsValidation(err))

	s, err := env.manager.GetSession(ctx, sid)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "login", s.Items[0].Content)
}

func TestAddContextItem_Concurrent(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	ctx := context.Background()
	sid := env.session(t)

	const writers = 64
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.manager.AddContextItem(ctx, sid, core.NewItem{
				Type:      core.ItemTypeConversation,
				Content:   fmt.Sprintf("message %d", i),
				Relevance: 0.5,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	s, err := env.manager.GetSession(ctx, sid)
	require.NoError(t, err)
	require.Len(t, s.Items, writers)

	seen := make(map[string]struct{}, writers)
	for _, it := range s.Items {
		seen[it.ID] = struct{}{}
	}
	assert.Len(t, seen, writers)
}

func TestRemoveContextItem(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	ctx := context.Background()
	sid := env.session(t)
	keep := env.add(t, sid, core.ItemTypeCode, "keep", 0.5)
	drop := env.add(t, sid, core.ItemTypeCode, "drop", 0.5)

	t.Run("removes_existing", func(t *testing.T) {
		require.NoError(t, env.manager.RemoveContextItem(ctx, sid, drop.ID))
		s, err := env.manager.GetSession(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, []string{keep.ID}, itemIDs(s.Items))
	})

	t.Run("missing_item_is_noop", func(t *testing.T) {
		before, err := env.manager.GetSession(ctx, sid)
		require.NoError(t, err)

		env.clock.Advance(time.Hour)
		require.NoError(t, env.manager.RemoveContextItem(ctx, sid, drop.ID))
		require.NoError(t, env.manager.RemoveContextItem(ctx, sid, "never-existed"))

		after, err := env.manager.GetSession(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("clears_freed_slot", func(t *testing.T) {
		sid := env.session(t)
		first := env.add(t, sid, core.ItemTypeCode, "first", 0.5)
		env.add(t, sid, core.ItemTypeCode, "second", 0.5)
		env.add(t, sid, core.ItemTypeDocumentation, "third", 0.5)
		require.NoError(t, env.manager.RemoveContextItem(ctx, sid, first.ID))

		s, err := env.manager.store.lookup(sid)
		require.NoError(t, err)
		s.mu.RLock()
		defer s.mu.RUnlock()
		require.Len(t, s.items, 2)
		tail := s.items[:len(s.items)+1][len(s.items)]
		assert.Equal(t, core.ContextItem{}, tail)
	})

	t.Run("unknown_session", func(t *testing.T) {
		err := env.manager.RemoveContextItem(ctx, "nope", keep.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestUpdateItemRelevance(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	ctx := context.Background()
	sid := env.session(t)
	item := env.add(t, sid, core.ItemTypeDocumentation, "doc", 0.5)

	tests := []struct {
		name      string
		itemID    string
		relevance float64
		checkFn   func(error) bool
	}{
		{name: "valid", itemID: item.ID, relevance: 0.9},
		{name: "out_of_range", itemID: item.ID, relevance: 1.01, checkFn: core.IsValidation},
		{name: "missing_item", itemID: "missing", relevance: 0.2, checkFn: core.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.clock.Advance(time.Second)
			updated, err := env.manager.UpdateItemRelevance(ctx, sid, tt.itemID, tt.relevance)
			if tt.checkFn != nil {
				assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.relevance, updated.Relevance)

			s, err := env.manager.GetSession(ctx, sid)
			require.NoError(t, err)
			assert.Equal(t, env.clock.Now(), s.UpdatedAt)
			assert.Equal(t, tt.relevance, s.Items[0].Relevance)
		})
	}

	s, err := env.manager.GetSession(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 0.9, s.Items[0].Relevance)
}
