package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/event"
	"github.com/lkarlslund/autolevel/internal/input"
	"github.com/lkarlslund/autolevel/internal/template"
)

var ErrRunning = errors.New("bot is already running")

// SensorFactory builds the sensor for one run. It is called on the worker
// goroutine, which also closes the sensor when the run ends.
type SensorFactory func(store *template.Store) (Sensor, error)

type Notifier interface {
	Send(e event.Event) bool
}

type Options struct {
	Sensors  SensorFactory
	Keyboard Keyboard
	Logger   *slog.Logger
	Notifier Notifier
	// OnBattleEnded is called from the worker goroutine once per battle end.
	OnBattleEnded func()
	Clock         Clock
	// Draw picks the time until the next movement direction change.
	Draw func(lo, hi time.Duration) time.Duration
}

// Snapshot is a copy of the worker's state for observers.
type Snapshot struct {
	Running       bool
	RunID         string
	State         State
	InBattle      bool
	CurrentAttack int
	AttackCount   int
	DeathRetries  int
	Held          input.Key
}

// Loop owns the worker goroutine. Its methods are safe to call from any
// goroutine.
type Loop struct {
	opts     Options
	settings atomic.Pointer[config.Settings]

	mu       sync.Mutex
	store    *template.Store
	current  *worker
	snapshot Snapshot
}

func New(settings config.Settings, store *template.Store, opts Options) *Loop {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Loop{opts: opts, store: store}
	l.settings.Store(&settings)
	return l
}

// Refresh hands new settings to the worker. They apply from the next read.
func (l *Loop) Refresh(settings config.Settings) {
	l.settings.Store(&settings)
}

func (l *Loop) Settings() config.Settings {
	return *l.settings.Load()
}

// SetTemplates replaces the template set. Not allowed during a run.
func (l *Loop) SetTemplates(store *template.Store) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil && l.current.active.Load() {
		return ErrRunning
	}
	l.store = store
	return nil
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil && l.current.active.Load()
}

func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Start launches a run and returns once its sensor is ready. The run ends on
// Stop or when ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.current != nil && l.current.active.Load() {
		l.mu.Unlock()
		return ErrRunning
	}
	if l.opts.Sensors == nil || l.opts.Keyboard == nil {
		l.mu.Unlock()
		return errors.New("bot needs a sensor factory and a keyboard")
	}
	runID := uuid.NewString()
	w := &worker{
		loop:   l,
		runID:  runID,
		logger: l.opts.Logger.With(slog.String("run_id", runID)),
		done:   make(chan struct{}),
	}
	w.active.Store(true)
	store := l.store
	l.current = w
	l.mu.Unlock()

	if missing := store.Missing(l.Settings().Required); len(missing) > 0 {
		w.logger.Warn("Templates missing for some categories", slog.Any("categories", missing))
	}

	ready := make(chan error, 1)
	go w.run(ctx, store, ready)
	if err := <-ready; err != nil {
		l.mu.Lock()
		if l.current == w {
			l.current = nil
		}
		l.mu.Unlock()
		return err
	}
	return nil
}

// Done is closed when the current run's worker has exited. It is nil when
// no run was started.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil
	}
	return l.current.done
}

// Stop ends the run, waiting a bounded time for the worker. Keys are always
// released, even when the worker does not exit in time. Calling Stop when
// idle is harmless.
func (l *Loop) Stop() {
	l.mu.Lock()
	w := l.current
	l.current = nil
	l.snapshot = Snapshot{}
	l.mu.Unlock()

	if w != nil {
		w.active.Store(false)
		select {
		case <-w.done:
		case <-time.After(l.Settings().Tuning.StopTimeout):
			w.logger.Warn("Worker did not stop in time")
		}
	}
	if l.opts.Keyboard == nil {
		return
	}
	if err := l.opts.Keyboard.ReleaseAll(); err != nil {
		l.opts.Logger.Warn("Could not release keys", slog.Any("error", err))
	}
}

func (l *Loop) publish(w *worker, s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == w {
		l.snapshot = s
	}
}

// worker is one run. Everything except active is owned by its goroutine.
type worker struct {
	loop   *Loop
	runID  string
	logger *slog.Logger
	active atomic.Bool
	done   chan struct{}

	deps       *deps
	classifier *Classifier
	battle     *BattleController
	death      *DeathRecovery
	movement   *Movement

	state        State
	lastPixel    [3]uint8
	pixelSeen    bool
	highlight    bool
	highlightFor time.Duration
}

func (w *worker) run(ctx context.Context, store *template.Store, ready chan<- error) {
	defer close(w.done)
	l := w.loop

	sensor, err := l.opts.Sensors(store)
	if err != nil {
		w.active.Store(false)
		ready <- fmt.Errorf("creating sensor: %w", err)
		return
	}

	w.setup(ctx, sensor)
	w.logger.Info("Bot started")
	ready <- nil

	defer func() {
		w.active.Store(false)
		w.movement.Stop()
		if err := l.opts.Keyboard.ReleaseAll(); err != nil {
			w.logger.Warn("Could not release keys", slog.Any("error", err))
		}
		if err := sensor.Close(); err != nil {
			w.logger.Warn("Could not close sensor", slog.Any("error", err))
		}
		w.deps.session.Reset()
		l.publish(w, Snapshot{})
		w.logger.Info("Bot stopped")
	}()

	for w.deps.running() {
		w.tick()
		w.deps.clock.Sleep(l.settings.Load().Tuning.TickInterval)
	}
}

func (w *worker) setup(ctx context.Context, sensor Sensor) {
	l := w.loop
	w.deps = &deps{
		sensor:   sensor,
		keys:     l.opts.Keyboard,
		clock:    l.opts.Clock,
		logger:   w.logger,
		session:  NewSession(),
		settings: l.settings.Load,
		running: func() bool {
			return w.active.Load() && ctx.Err() == nil
		},
	}
	w.battle = &BattleController{deps: w.deps}
	w.classifier = &Classifier{deps: w.deps, battle: w.battle}
	w.death = &DeathRecovery{deps: w.deps}
	w.movement = newMovement(w.deps, l.opts.Draw)
	w.applyHighlight(l.settings.Load(), true)
}

func (w *worker) applyHighlight(s *config.Settings, force bool) {
	if !force && s.ShowHighlight == w.highlight && s.HighlightDuration == w.highlightFor {
		return
	}
	w.highlight, w.highlightFor = s.ShowHighlight, s.HighlightDuration
	w.deps.sensor.SetHighlight(w.highlight, w.highlightFor)
}

func (w *worker) tick() {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(fmt.Sprintf("Error: %v", r), slog.String("stack", string(debug.Stack())))
			w.movement.Stop()
			w.deps.clock.Sleep(w.loop.settings.Load().Tuning.ErrorBackoff)
		}
	}()

	s := w.loop.settings.Load()
	w.applyHighlight(s, false)

	obs := w.classifier.Classify()
	dispatched := false
	if obs.State != w.state {
		dispatched = w.enter(obs)
	}
	if obs.State != Died {
		w.death.Reset()
	}
	if !dispatched {
		w.continuous(obs)
	}

	w.checkBattlePixel(s)
	w.publishSnapshot()
}

// enter runs the one-time action of a new state and reports whether it
// already dispatched the state's routine this tick.
func (w *worker) enter(obs Observation) bool {
	from := w.state
	w.state = obs.State
	msg := obs.State.describe()
	w.logger.Info(msg, slog.String("from", from.String()), slog.String("to", obs.State.String()))
	if n := w.loop.opts.Notifier; n != nil {
		n.Send(event.StateChanged(event.Text(msg), from.String(), obs.State.String()))
	}

	if obs.State != Map {
		w.movement.Stop()
	}
	switch obs.State {
	case Battle:
		if obs.Actionable && !w.deps.visible(template.Map) {
			w.battle.Engage()
			return true
		}
	case Died:
		w.death.Attempt()
		return true
	}
	return false
}

func (w *worker) continuous(obs Observation) {
	switch obs.State {
	case Battle:
		if obs.Handled || w.deps.visible(template.Map) {
			return
		}
		if !w.battle.ConfirmKill() && w.battle.Actionable() {
			w.battle.Engage()
		}
	case Died:
		w.death.Attempt()
	case Map:
		w.movement.Tick()
	}
}

// checkBattlePixel watches one pixel whose colour flips when a battle ends.
// It reacts only to colour changes, so each transition fires once.
func (w *worker) checkBattlePixel(s *config.Settings) {
	bp := s.Tuning.BattlePixel
	c, err := w.deps.sensor.Pixel(bp.X, bp.Y)
	if err != nil {
		w.logger.Warn("Error checking battle state", slog.Any("error", err))
		w.movement.Stop()
		return
	}
	rgb := [3]uint8{c.R, c.G, c.B}
	if w.pixelSeen && rgb == w.lastPixel {
		return
	}
	w.pixelSeen = true
	w.lastPixel = rgb

	session := w.deps.session
	switch {
	case rgb == bp.EndColor:
		session.InBattle = false
		w.logger.Info("Battle ended")
		if n := w.loop.opts.Notifier; n != nil {
			n.Send(event.BattleEnded(event.Text("Battle ended")))
		}
		if cb := w.loop.opts.OnBattleEnded; cb != nil {
			cb()
		}
	case w.state == Unknown && !session.InBattle:
		session.InBattle = true
		w.logger.Info("Battle started")
		w.movement.Stop()
	}
}

func (w *worker) publishSnapshot() {
	session := w.deps.session
	w.loop.publish(w, Snapshot{
		Running:       true,
		RunID:         w.runID,
		State:         w.state,
		InBattle:      session.InBattle,
		CurrentAttack: session.CurrentAttack,
		AttackCount:   session.AttackCount,
		DeathRetries:  session.DeathRetries,
		Held:          w.movement.State().Held,
	})
}
