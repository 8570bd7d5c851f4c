package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lkarlslund/autolevel/internal/bot"
	"github.com/lkarlslund/autolevel/internal/capture"
	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/event"
	"github.com/lkarlslund/autolevel/internal/input"
	"github.com/lkarlslund/autolevel/internal/template"
	"github.com/lkarlslund/autolevel/internal/vision"
	"github.com/lkarlslund/autolevel/internal/vision/cvmatch"
	"github.com/lkarlslund/autolevel/internal/window"
)

const eventBufferSize = 256

var (
	runOverlay bool
	runProfile string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Attach to the game window and start leveling",
		Args:  cobra.NoArgs,
		RunE:  runRunCmd,
	}
	cmd.Flags().BoolVar(&runOverlay, "overlay", false, "show a debug window with the capture and highlighted matches")
	cmd.Flags().StringVar(&runProfile, "profile", "", "profile to use for this run instead of the active one")
	return cmd
}

func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, debug.Stack()))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return f()
	}
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, settings, err := loadSettings(configPath, runProfile)
	if err != nil {
		return err
	}

	bus := event.NewBus(eventBufferSize)
	defer bus.Close()
	logger, closeLog, err := newLogger(cfg, bus)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := template.Load(os.DirFS(cfg.TemplatesDir), logger)
	if err != nil {
		return err
	}
	logger.Info("Templates loaded", slog.Int("count", store.Len()), slog.String("dir", cfg.TemplatesDir))

	h, err := window.Find(cfg.WindowTitle)
	if err != nil {
		return fmt.Errorf("attaching to %q: %w", cfg.WindowTitle, err)
	}
	region, err := window.ClientRegion(h)
	if err != nil {
		return fmt.Errorf("reading window area: %w", err)
	}
	logger.Info("Attached to game window", slog.String("title", cfg.WindowTitle), slog.String("region", region.String()), slog.String("profile", settings.Profile))

	keyboard := input.NewDispatcher(input.NewWin32(h), logger)
	var battles atomic.Int64
	battleEnded := func() {
		logger.Info("Battles completed", slog.Int64("count", battles.Add(1)))
	}
	loop := bot.New(settings, store, bot.Options{
		Sensors:       windowSensors(h, bus, logger, settings),
		Keyboard:      keyboard,
		Logger:        logger,
		Notifier:      bus,
		OnBattleEnded: battleEnded,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	listener := event.NewListener(bus, logger)
	var ov *overlay
	if runOverlay {
		ov = newOverlay(h, logger)
		listener.Register(ov.Handle)
	}
	listener.Register(func(_ context.Context, e event.Event) error {
		if sc, ok := e.(event.StateChangedEvent); ok {
			s := loop.Snapshot()
			logger.Debug("Status", slog.String("from", sc.From), slog.String("to", sc.To), slog.Int("attack", s.CurrentAttack), slog.Int("attack_count", s.AttackCount))
		}
		return nil
	})

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return listener.Listen(ctx)
	}))

	watcher, err := newConfigWatcher(configPath, runProfile, logger, loop.Refresh)
	if err != nil {
		logger.Warn("Config changes will apply at the next run", slog.Any("error", err))
	} else {
		g.Go(wrapWithRecover(logger, func() error {
			return watcher.Run(ctx)
		}))
	}

	if err := loop.Start(ctx); err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("starting bot: %w", err)
	}
	logger.Info("Bot started, press Ctrl+C to stop")

	done := loop.Done()
	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		select {
		case <-done:
			logger.Info("Bot stopped on its own")
		case <-ctx.Done():
			logger.Info("Shutting down")
		}
		loop.Stop()
		return nil
	}))

	if ov != nil {
		g.Go(wrapWithRecover(logger, func() error {
			defer cancel()
			return ov.Run(ctx)
		}))
	}

	return g.Wait()
}

// windowSensors builds a capture and matcher on the worker goroutine for
// every run.
func windowSensors(h window.Handle, bus *event.Bus, logger *slog.Logger, settings config.Settings) bot.SensorFactory {
	return func(store *template.Store) (bot.Sensor, error) {
		source, err := capture.NewWindowSource(h)
		if err != nil {
			return nil, fmt.Errorf("creating screen capture: %w", err)
		}
		return vision.NewScanner(source, cvmatch.New(), store, bus, logger, vision.Options{
			MaxAge:            settings.Tuning.FrameMaxAge,
			Highlight:         settings.ShowHighlight,
			HighlightDuration: settings.HighlightDuration,
		}), nil
	}
}
