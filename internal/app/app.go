package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/config"
	"github.com/five82/swarmtail/internal/logging"
	"github.com/five82/swarmtail/internal/prefs"
	"github.com/five82/swarmtail/internal/state"
	"github.com/five82/swarmtail/internal/swarm"
	"github.com/five82/swarmtail/internal/ui"
)

// Options configure every swarmtail command.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/swarmtail/prefs.toml
	BaseURL    string // overrides base_url when set
	PollEvery  int    // seconds; zero uses the config value
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.PollEvery > 0 {
		cfg.PollEvery = time.Duration(opts.PollEvery) * time.Second
	}
	return cfg, nil
}

// Run boots the TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs", zap.Error(err))
	}

	client, err := swarm.NewClient(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("init swarm client: %w", err)
	}
	logger.Info("swarmtail starting", zap.String("base_url", client.BaseURL().String()))

	store := &state.Store{}

	// Do initial refresh to populate store before UI starts
	_ = refresh(ctx, store, client, logger)
	StartPoller(ctx, store, client, cfg.PollEvery, logger)

	form := userPrefs.Form.Apply(cfg.DefaultForm())

	return ui.Run(ui.Options{
		Context:       ctx,
		Store:         store,
		Dialer:        swarm.NewStreamDialer(client, logger),
		Logger:        logger,
		Form:          form,
		FlushDelay:    cfg.Stream.FlushDelay,
		MaxMessageLen: cfg.Stream.MaxMessageLen,
		ThemeName:     userPrefs.Theme,
		Prefs:         userPrefs,
		PrefsPath:     opts.PrefsPath,
		Endpoint:      client.BaseURL().String(),
	})
}
