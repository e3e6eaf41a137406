package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/swarmtail/internal/logstream"
)

// Config captures everything swarmtail reads from config.toml.
type Config struct {
	BaseURL   string
	LogFile   string
	LogLevel  string
	PollEvery time.Duration
	Stream    StreamConfig
	Relay     RelayConfig
}

// StreamConfig tunes log sessions and seeds the form.
type StreamConfig struct {
	DefaultTail   int
	DefaultSince  string
	FlushDelay    time.Duration
	MaxMessageLen int
}

// RelayConfig configures `swarmtail serve`.
type RelayConfig struct {
	Listen  string
	Sources []RelaySource
}

// RelaySource is one log file exposed by the relay.
type RelaySource struct {
	ID     string
	Name   string
	Path   string
	Stream string // "stdout" or "stderr"
}

const (
	defaultConfigPath = "~/.config/swarmtail/config.toml"
	defaultLogFile    = "~/.local/state/swarmtail/swarmtail.log"
	defaultBaseURL    = "http://127.0.0.1:8080/"
	defaultLogLevel   = "info"
	defaultListen     = "127.0.0.1:8080"
	defaultPollEvery  = 10 * time.Second
	defaultSince      = "1h"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:   defaultBaseURL,
		LogFile:   mustExpand(defaultLogFile),
		LogLevel:  defaultLogLevel,
		PollEvery: defaultPollEvery,
		Stream: StreamConfig{
			DefaultTail:   logstream.DefaultTail,
			DefaultSince:  defaultSince,
			FlushDelay:    logstream.DefaultFlushDelay,
			MaxMessageLen: logstream.DefaultMaxMessageLen,
		},
		Relay: RelayConfig{Listen: defaultListen},
	}
}

type rawConfig struct {
	BaseURL     string `toml:"base_url"`
	LogFile     string `toml:"log_file"`
	LogLevel    string `toml:"log_level"`
	PollSeconds int    `toml:"poll_seconds"`
	Stream      struct {
		DefaultTail   int    `toml:"default_tail"`
		DefaultSince  string `toml:"default_since"`
		FlushDelayMS  int    `toml:"flush_delay_ms"`
		MaxMessageLen int    `toml:"max_message_len"`
	} `toml:"stream"`
	Relay struct {
		Listen  string `toml:"listen"`
		Sources []struct {
			ID     string `toml:"id"`
			Name   string `toml:"name"`
			Path   string `toml:"path"`
			Stream string `toml:"stream"`
		} `toml:"sources"`
	} `toml:"relay"`
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if raw.PollSeconds > 0 {
		cfg.PollEvery = time.Duration(raw.PollSeconds) * time.Second
	}

	if raw.Stream.DefaultTail > 0 {
		cfg.Stream.DefaultTail = raw.Stream.DefaultTail
	}
	if v := strings.TrimSpace(raw.Stream.DefaultSince); v != "" {
		if !logstream.IsValidSince(v) {
			return Config{}, fmt.Errorf("parse config: stream.default_since %q is not a duration or timestamp", v)
		}
		cfg.Stream.DefaultSince = v
	}
	if raw.Stream.FlushDelayMS > 0 {
		cfg.Stream.FlushDelay = time.Duration(raw.Stream.FlushDelayMS) * time.Millisecond
	}
	if raw.Stream.MaxMessageLen > 0 {
		cfg.Stream.MaxMessageLen = raw.Stream.MaxMessageLen
	}

	if v := strings.TrimSpace(raw.Relay.Listen); v != "" {
		cfg.Relay.Listen = v
	}
	seen := make(map[string]bool)
	for i, src := range raw.Relay.Sources {
		rs := RelaySource{
			ID:     strings.TrimSpace(src.ID),
			Name:   strings.TrimSpace(src.Name),
			Path:   strings.TrimSpace(src.Path),
			Stream: strings.ToLower(strings.TrimSpace(src.Stream)),
		}
		if rs.ID == "" {
			return Config{}, fmt.Errorf("relay source %d: id is required", i+1)
		}
		if seen[rs.ID] {
			return Config{}, fmt.Errorf("relay source %q: duplicate id", rs.ID)
		}
		seen[rs.ID] = true
		if rs.Path == "" {
			return Config{}, fmt.Errorf("relay source %q: path is required", rs.ID)
		}
		rs.Path = mustExpand(rs.Path)
		if rs.Name == "" {
			rs.Name = rs.ID
		}
		switch rs.Stream {
		case "":
			rs.Stream = "stdout"
		case "stdout", "stderr":
		default:
			return Config{}, fmt.Errorf("relay source %q: stream must be stdout or stderr, got %q", rs.ID, rs.Stream)
		}
		cfg.Relay.Sources = append(cfg.Relay.Sources, rs)
	}

	return cfg, nil
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// DefaultForm seeds the stream form from the configured defaults.
func (c Config) DefaultForm() logstream.FormState {
	form := logstream.DefaultForm()
	if c.Stream.DefaultTail > 0 {
		form.Tail = fmt.Sprint(c.Stream.DefaultTail)
	}
	if c.Stream.DefaultSince != "" {
		form.Since = logstream.NewSinceInput(c.Stream.DefaultSince)
	}
	return form
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
