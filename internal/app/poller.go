package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/logstream"
	"github.com/five82/swarmtail/internal/state"
	"github.com/five82/swarmtail/internal/swarm"
)

const defaultPollInterval = 10 * time.Second

// StartPoller launches a background goroutine that refreshes the service
// catalog at a fixed cadence, backing off while the API is unreachable.
// It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, catalog swarm.Catalog, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		failures := 0
		for {
			if err := refresh(ctx, store, catalog, logger); err != nil {
				failures++
			} else {
				failures = 0
			}

			wait := interval
			if failures > 0 {
				wait = logstream.Backoff(failures, interval)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, catalog swarm.Catalog, logger *zap.Logger) error {
	services, err := catalog.FetchServices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		store.Update(nil, err)
		logger.Warn("catalog poll failed", zap.Error(err))
		return err
	}
	store.Update(services, nil)
	return nil
}
