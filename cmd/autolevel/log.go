package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/event"
)

// newLogger writes to stdout and to a dated file in the log directory. When
// bus is set every record is mirrored onto it as a LogLineEvent.
func newLogger(cfg config.Config, bus *event.Bus) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	closer := func() error { return nil }
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		name := filepath.Join(cfg.LogDir, fmt.Sprintf("autolevel-%s.log", time.Now().Format("2006-01-02")))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f.Close
	}

	var handler slog.Handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	if bus != nil {
		handler = event.NewLogHandler(handler, bus, level)
	}
	return slog.New(handler), closer, nil
}

// consoleLogger is for the short lived commands that do not need a log file.
func consoleLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
