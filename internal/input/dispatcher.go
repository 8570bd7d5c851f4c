// Package input sends keyboard and mouse input to the game window. All input
// goes through one Dispatcher so presses from different goroutines never
// interleave and held keys can always be released.
package input

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Backend delivers raw input to the target window.
type Backend interface {
	// Focus brings the target to the foreground. restore gives focus back
	// to whatever had it before.
	Focus() (restore func(), err error)
	KeyDown(vk uint16) error
	KeyUp(vk uint16) error
	// Click clicks in the middle of the target's client area.
	Click(b Button) error
}

type Option func(*Dispatcher)

// WithTapDelay sets the time between key down and key up of a press.
func WithTapDelay(d time.Duration) Option {
	return func(di *Dispatcher) { di.tap = d }
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(di *Dispatcher) { di.sleep = sleep }
}

type Dispatcher struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
	held    map[Key]uint16
	tap     time.Duration
	sleep   func(time.Duration)
}

func NewDispatcher(backend Backend, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		logger:  logger,
		held:    make(map[Key]uint16),
		tap:     30 * time.Millisecond,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) focus() (func(), error) {
	restore, err := d.backend.Focus()
	if err != nil {
		return nil, fmt.Errorf("focusing window: %w", err)
	}
	if restore == nil {
		restore = func() {}
	}
	return restore, nil
}

func (d *Dispatcher) virtualKey(k Key) (uint16, error) {
	vk, err := k.VirtualKey()
	if err != nil {
		d.logger.Error("Cannot send key", slog.String("key", string(k)), slog.Any("error", err))
	}
	return vk, err
}

// Press taps k once.
func (d *Dispatcher) Press(k Key) error {
	vk, err := d.virtualKey(k)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	restore, err := d.focus()
	if err != nil {
		d.logger.Error("Error sending key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	defer restore()

	if err := d.backend.KeyDown(vk); err != nil {
		d.backend.KeyUp(vk)
		d.logger.Error("Error sending key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	d.sleep(d.tap)
	if err := d.backend.KeyUp(vk); err != nil {
		d.logger.Error("Error releasing key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	return nil
}

// Hold presses k down and keeps it tracked until Release or ReleaseAll.
func (d *Dispatcher) Hold(k Key) error {
	vk, err := d.virtualKey(k)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	restore, err := d.focus()
	if err != nil {
		d.logger.Error("Error holding key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	defer restore()

	if err := d.backend.KeyDown(vk); err != nil {
		d.backend.KeyUp(vk)
		d.logger.Error("Error holding key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	d.held[k] = vk
	return nil
}

// Release lifts k. The key stops being tracked even if the backend fails.
func (d *Dispatcher) Release(k Key) error {
	vk, err := d.virtualKey(k)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.held, k)
	return d.keyUp(k, vk)
}

func (d *Dispatcher) keyUp(k Key, vk uint16) error {
	restore, err := d.focus()
	if err != nil {
		d.logger.Error("Error releasing key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	defer restore()
	if err := d.backend.KeyUp(vk); err != nil {
		d.logger.Error("Error releasing key", slog.String("key", string(k)), slog.Any("error", err))
		return err
	}
	return nil
}

// ReleaseAll lifts every held key.
func (d *Dispatcher) ReleaseAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for k, vk := range d.held {
		delete(d.held, k)
		if err := d.keyUp(k, vk); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Held lists the keys currently held down, sorted.
func (d *Dispatcher) Held() []Key {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make([]Key, 0, len(d.held))
	for k := range d.held {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (d *Dispatcher) RightClickCenter() error {
	return d.click(ButtonRight)
}

func (d *Dispatcher) ClickCenter() error {
	return d.click(ButtonLeft)
}

func (d *Dispatcher) click(b Button) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	restore, err := d.focus()
	if err != nil {
		d.logger.Error("Error clicking", slog.String("button", b.String()), slog.Any("error", err))
		return err
	}
	defer restore()
	if err := d.backend.Click(b); err != nil {
		d.logger.Error("Error clicking", slog.String("button", b.String()), slog.Any("error", err))
		return err
	}
	return nil
}
