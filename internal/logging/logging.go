// Package logging builds the zap loggers used across swarmtail.
//
// The TUI owns the terminal, so it logs to a file; the headless commands
// log to stderr, leaving stdout for log output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select where and how much to log.
type Options struct {
	Path   string    // log file; empty logs to Writer
	Writer io.Writer // used when Path is empty; nil means stderr
	Level  string    // debug, info, warn, error
	Colors bool
}

const (
	dim   = "\033[2m"
	bold  = "\033[1m"
	reset = "\033[0m"
)

// New returns a logger and a cleanup func that flushes and closes it.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var sink zapcore.WriteSyncer
	closeSink := func() {}
	switch {
	case strings.TrimSpace(opts.Path) != "":
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", opts.Path, err)
		}
		sink = zapcore.AddSync(file)
		closeSink = func() { _ = file.Close() }
	case opts.Writer != nil:
		sink = zapcore.AddSync(opts.Writer)
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(consoleEncoder(opts.Colors), sink, level)
	logger := zap.New(core, zap.AddCaller())
	cleanup := func() {
		_ = logger.Sync()
		closeSink()
	}
	return logger, cleanup, nil
}

// ParseLevel maps a config level name to a zap level; blank means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

func consoleEncoder(colors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		ts := t.Format("15:04:05.000")
		if colors {
			ts = dim + ts + reset
		}
		enc.AppendString(ts)
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		letter := "?"
		switch level {
		case zapcore.DebugLevel:
			letter = "D"
		case zapcore.InfoLevel:
			letter = "I"
		case zapcore.WarnLevel:
			letter = "W"
		case zapcore.ErrorLevel:
			letter = "E"
		}
		if colors {
			letter = bold + letter + reset
		}
		enc.AppendString(letter)
	}

	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := filepath.Base(caller.File)
		enc.AppendString(strings.TrimSuffix(file, ".go"))
	}

	return zapcore.NewConsoleEncoder(config)
}
