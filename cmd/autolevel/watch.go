package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lkarlslund/autolevel/internal/config"
)

var configDebounce = 250 * time.Millisecond

// loadSettings reads the config and resolves the settings for profile, or
// for the active profile when profile is empty.
func loadSettings(path, profile string) (config.Config, config.Settings, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	if profile != "" {
		if err := cfg.UseProfile(profile); err != nil {
			return config.Config{}, config.Settings{}, err
		}
	}
	settings, err := cfg.Settings()
	if err != nil {
		return config.Config{}, config.Settings{}, fmt.Errorf("failed to resolve settings: %w", err)
	}
	return cfg, settings, nil
}

// configWatcher reloads the config file when it changes on disk. The
// directory is watched because editors often replace the file.
type configWatcher struct {
	path    string
	profile string
	logger  *slog.Logger
	apply   func(config.Settings)
	watcher *fsnotify.Watcher
}

func newConfigWatcher(path, profile string, logger *slog.Logger, apply func(config.Settings)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &configWatcher{path: filepath.Clean(path), profile: profile, logger: logger, apply: apply, watcher: w}, nil
}

// Run applies every valid change until ctx is done. Invalid files are
// logged and the previous settings stay in effect.
func (c *configWatcher) Run(ctx context.Context) error {
	defer c.watcher.Close()

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-c.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) == c.path && e.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				reload = time.After(configDebounce)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("Config watcher error", slog.Any("error", err))
		case <-reload:
			reload = nil
			_, settings, err := loadSettings(c.path, c.profile)
			if err != nil {
				c.logger.Warn("Ignoring config change", slog.Any("error", err))
				continue
			}
			c.apply(settings)
			c.logger.Info("Settings reloaded", slog.String("profile", settings.Profile))
		}
	}
}
