package bot

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/input"
	"github.com/lkarlslund/autolevel/internal/template"
	"github.com/lkarlslund/autolevel/internal/vision"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		d = time.Millisecond
	}
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSensor shows whatever categories are set, or asks show when it is set.
type fakeSensor struct {
	mu         sync.Mutex
	visible    map[template.Category]bool
	show       func(c template.Category) bool
	pixels     []color.RGBA
	pixelErr   error
	pixelPanic bool
	panicOn    template.Category
	finds      int
	closed     bool

	highlight    bool
	highlightFor time.Duration
}

func newFakeSensor(cats ...template.Category) *fakeSensor {
	s := &fakeSensor{visible: map[template.Category]bool{}, panicOn: -1}
	for _, c := range cats {
		s.visible[c] = true
	}
	return s
}

func (s *fakeSensor) set(cats ...template.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = map[template.Category]bool{}
	for _, c := range cats {
		s.visible[c] = true
	}
}

func (s *fakeSensor) Find(c template.Category, threshold float64) vision.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if c == s.panicOn {
		panic("sensor exploded")
	}
	shown := s.visible[c]
	if s.show != nil {
		shown = s.show(c)
	}
	if !shown {
		return vision.Result{}
	}
	return vision.Result{Matched: true, Confidence: 0.99, Name: c.String() + ".png", Region: image.Rect(0, 0, 10, 10)}
}

func (s *fakeSensor) Pixel(x, y float64) (color.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pixelPanic {
		panic("pixel exploded")
	}
	if s.pixelErr != nil {
		return color.RGBA{}, s.pixelErr
	}
	if len(s.pixels) == 0 {
		return color.RGBA{A: 255}, nil
	}
	c := s.pixels[0]
	if len(s.pixels) > 1 {
		s.pixels = s.pixels[1:]
	}
	return c, nil
}

func (s *fakeSensor) SetHighlight(enabled bool, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight, s.highlightFor = enabled, d
}

func (s *fakeSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSensor) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeKeyboard records input as "press:f", "hold:a", "release:a", "rclick".
type fakeKeyboard struct {
	mu          sync.Mutex
	log         []string
	held        map[input.Key]bool
	maxHeld     int
	pressErr    error
	releaseErr  error
	clickErr    error
	releaseAlls int
	onPress     func(k input.Key)
	onClick     func()
}

func newFakeKeyboard() *fakeKeyboard {
	return &fakeKeyboard{held: map[input.Key]bool{}}
}

func (k *fakeKeyboard) Press(key input.Key) error {
	k.mu.Lock()
	k.log = append(k.log, "press:"+string(key))
	err, hook := k.pressErr, k.onPress
	k.mu.Unlock()
	if err == nil && hook != nil {
		hook(key)
	}
	return err
}

func (k *fakeKeyboard) Hold(key input.Key) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.log = append(k.log, "hold:"+string(key))
	k.held[key] = true
	if len(k.held) > k.maxHeld {
		k.maxHeld = len(k.held)
	}
	return nil
}

func (k *fakeKeyboard) Release(key input.Key) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.log = append(k.log, "release:"+string(key))
	if k.releaseErr != nil {
		return k.releaseErr
	}
	delete(k.held, key)
	return nil
}

func (k *fakeKeyboard) ReleaseAll() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.releaseAlls++
	k.held = map[input.Key]bool{}
	return nil
}

func (k *fakeKeyboard) RightClickCenter() error {
	k.mu.Lock()
	k.log = append(k.log, "rclick")
	err, hook := k.clickErr, k.onClick
	k.mu.Unlock()
	if err == nil && hook != nil {
		hook()
	}
	return err
}

func (k *fakeKeyboard) events() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.log...)
}

func (k *fakeKeyboard) count(event string) int {
	n := 0
	for _, e := range k.events() {
		if e == event {
			n++
		}
	}
	return n
}

func (k *fakeKeyboard) releaseAllCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.releaseAlls
}

func (k *fakeKeyboard) heldCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.held)
}

var errFake = errors.New("fake failure")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDeps(sensor Sensor, kb Keyboard, clock Clock) (*deps, *config.Settings) {
	settings := config.DefaultSettings()
	return &deps{
		sensor:   sensor,
		keys:     kb,
		clock:    clock,
		logger:   discardLogger(),
		session:  NewSession(),
		settings: func() *config.Settings { return &settings },
		running:  func() bool { return true },
	}, &settings
}
