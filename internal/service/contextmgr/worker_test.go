package contextmgr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

func TestSnapshotWorker_FlushesOnShutdown(t *testing.T) {
	repo := newMemRepo()
	env := newTestEnv(t, nil, overlapScorer, WithRepository(repo))
	sid := env.session(t)
	env.add(t, sid, core.ItemTypeCode, "x", 0.5)

	w := NewSnapshotWorker(env.manager, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("snapshot worker did not stop")
	}

	// Shutdown receives the already cancelled context and still flushes.
	require.NoError(t, w.Shutdown(ctx))
	saved, ok := repo.get(sid)
	require.True(t, ok)
	assert.Len(t, saved.Items, 1)
}

func TestSnapshotWorker_FlushesOnTick(t *testing.T) {
	repo := newMemRepo()
	env := newTestEnv(t, nil, overlapScorer, WithRepository(repo))
	sid := env.session(t)

	w := NewSnapshotWorker(env.manager, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	assert.Eventually(t, func() bool {
		_, ok := repo.get(sid)
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestPruneWorker_EnforcesCapacity(t *testing.T) {
	cfg := newTestConfig()
	cfg.maxItems = 1
	env := newTestEnv(t, cfg, overlapScorer)
	sid := env.session(t)
	env.add(t, sid, core.ItemTypeCode, "a", 0.2)
	env.add(t, sid, core.ItemTypeCode, "b", 0.9)

	w := NewPruneWorker(env.manager, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	assert.Eventually(t, func() bool {
		s, err := env.manager.GetSession(context.Background(), sid)
		return err == nil && len(s.Items) == 1 && s.Items[0].Content == "b"
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Shutdown(ctx))
}

func TestNewWorkers_DefaultIntervals(t *testing.T) {
	env := newTestEnv(t, nil, overlapScorer)
	assert.Equal(t, DefaultPruneInterval, NewPruneWorker(env.manager, 0).interval)
	assert.Equal(t, DefaultSnapshotInterval, NewSnapshotWorker(env.manager, -1).interval)
}
