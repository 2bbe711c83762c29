package contextmgr

import (
	"context"
	"time"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

const (
	DefaultPruneInterval    = time.Minute
	DefaultSnapshotInterval = 30 * time.Second
	snapshotShutdownTimeout = 10 * time.Second
)

// PruneWorker periodically applies the capacity policy to every session.
type PruneWorker struct {
	manager  *Manager
	interval time.Duration
}

func NewPruneWorker(manager *Manager, interval time.Duration) *PruneWorker {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &PruneWorker{manager: manager, interval: interval}
}

func (w *PruneWorker) Start(ctx context.Context) error {
	ctx = log.WithComponent(ctx, "prune_worker")
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", w.interval).Msg("starting prune worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down prune worker")
			return nil
		case <-ticker.C:
			removed, err := w.manager.PruneAll(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("prune pass failed")
				continue
			}
			if removed > 0 {
				logger.Debug().Int("removed", removed).Msg("prune pass finished")
			}
		}
	}
}

func (w *PruneWorker) Shutdown(ctx context.Context) error {
	return nil
}

// SnapshotWorker flushes changed sessions to the repository on a ticker and
// once more on shutdown.
type SnapshotWorker struct {
	manager  *Manager
	interval time.Duration
}

func NewSnapshotWorker(manager *Manager, interval time.Duration) *SnapshotWorker {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	return &SnapshotWorker{manager: manager, interval: interval}
}

func (w *SnapshotWorker) Start(ctx context.Context) error {
	ctx = log.WithComponent(ctx, "snapshot_worker")
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", w.interval).Msg("starting snapshot worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down snapshot worker")
			return nil
		case <-ticker.C:
			if err := w.manager.Flush(ctx); err != nil {
				logger.Error().Err(err).Msg("snapshot flush failed")
			}
		}
	}
}

// Shutdown runs a final flush. The caller's context is usually already
// cancelled at this point, so only its values are kept.
func (w *SnapshotWorker) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotShutdownTimeout)
	defer cancel()
	return w.manager.Flush(ctx)
}
