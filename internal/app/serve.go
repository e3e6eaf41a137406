package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/logging"
	"github.com/five82/swarmtail/internal/relay"
)

// Serve runs the log relay for the configured file sources until ctx is
// done. A non-empty listen overrides relay.listen.
func Serve(ctx context.Context, opts Options, listen string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	if listen == "" {
		listen = cfg.Relay.Listen
	}
	if len(cfg.Relay.Sources) == 0 {
		logger.Warn("no relay sources configured; the catalog will be empty")
	}
	for _, src := range cfg.Relay.Sources {
		logger.Info("relay source", zap.String("id", src.ID), zap.String("path", src.Path), zap.String("stream", src.Stream))
	}

	srv := relay.New(relay.Options{
		Sources: cfg.Relay.Sources,
		Logger:  logger,
	})
	return srv.ListenAndServe(ctx, listen)
}
