// Package bot is the sense-classify-act loop: it reads the game screen
// through a Sensor, decides what situation the game is in and drives the
// battle, revive and movement routines through a Keyboard.
package bot

import (
	"image/color"
	"log/slog"
	"time"

	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/input"
	"github.com/lkarlslund/autolevel/internal/template"
	"github.com/lkarlslund/autolevel/internal/vision"
)

// Sensor looks at the game window. It is created, used and closed by the
// worker goroutine only.
type Sensor interface {
	Find(c template.Category, threshold float64) vision.Result
	// Pixel samples a position given as fractions of the window size.
	Pixel(x, y float64) (color.RGBA, error)
	SetHighlight(enabled bool, d time.Duration)
	Close() error
}

// Keyboard sends input to the game window. Implementations must be safe
// for concurrent use; Stop releases keys from another goroutine.
type Keyboard interface {
	Press(k input.Key) error
	Hold(k input.Key) error
	Release(k input.Key) error
	ReleaseAll() error
	RightClickCenter() error
}

// deps is what every routine of a run shares.
type deps struct {
	sensor   Sensor
	keys     Keyboard
	clock    Clock
	logger   *slog.Logger
	session  *Session
	settings func() *config.Settings
	running  func() bool
}

func (d *deps) find(c template.Category) vision.Result {
	return d.sensor.Find(c, d.settings().Thresholds.For(c))
}

func (d *deps) visible(c template.Category) bool {
	return d.find(c).Matched
}

func (d *deps) press(k string) error {
	return d.keys.Press(input.Key(k))
}

// inputFailed reports a key that never reached the game and lifts every
// held key so nothing stays pressed.
func (d *deps) inputFailed(what string, err error) {
	d.logger.Error("Input failed - "+what, slog.Any("error", err))
	if err := d.keys.ReleaseAll(); err != nil {
		d.logger.Warn("Could not release keys", slog.Any("error", err))
	}
}

// pause sleeps for total in poll sized steps. It returns false as soon as
// the run stops.
func (d *deps) pause(total time.Duration) bool {
	poll := d.settings().Tuning.PollInterval
	deadline := d.clock.Now().Add(total)
	for {
		if !d.running() {
			return false
		}
		left := deadline.Sub(d.clock.Now())
		if left <= 0 {
			return true
		}
		d.clock.Sleep(min(left, poll))
	}
}

// waitFor polls cond until it holds, timeout passes or the run stops.
func (d *deps) waitFor(timeout time.Duration, cond func() bool) bool {
	poll := d.settings().Tuning.PollInterval
	deadline := d.clock.Now().Add(timeout)
	for d.running() {
		if cond() {
			return true
		}
		if !d.clock.Now().Before(deadline) {
			return false
		}
		d.clock.Sleep(poll)
	}
	return false
}
