package cache

import (
	"context"
	"time"

	"github.com/bassista/go_school/internal/logger"
)

// StartRefreshScheduler runs a goroutine that periodically refreshes expired entries,
// so readers rarely wait on the provider. It returns a channel closed on shutdown.
// A non-positive interval disables the scheduler; the returned channel is already closed.
func StartRefreshScheduler(ctx context.Context, store Warmer, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		logger.WithComponent("refresh").Debug("refresh scheduler disabled")
		close(done)
		return done
	}

	logger.WithComponent("refresh").Debugf("starting refresh scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("refresh").Info("refresh scheduler stopped")
				return
			case <-ticker.C:
				logger.WithComponent("refresh").Tracef("refresh scheduler tick")
				store.Warm(ctx)
			}
		}
	}()

	return done
}
