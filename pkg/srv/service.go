package srv

import (
	"context"
	"time"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

const DefaultShutdownTimeout = 15 * time.Second

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices runs every service in its own goroutine. A service that
// fails to start cancels the whole set through cancel.
func StartServices(ctx context.Context, cancel context.CancelFunc, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Error().Err(err).Msgf("%T failed", service)
				cancel()
			}
		}(service)
	}
}

// ShutdownServices blocks until ctx is done and then shuts services down in
// reverse start order. Shutdown gets its own deadline since ctx is already
// cancelled by then.
func ShutdownServices(ctx context.Context, services []Service, timeout time.Duration) {
	<-ctx.Done()
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(shutdownCtx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
}
