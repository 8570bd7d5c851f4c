package bot

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/event"
	"github.com/lkarlslund/autolevel/internal/input"
	"github.com/lkarlslund/autolevel/internal/template"
)

type testWorker struct {
	*worker
	bus   *event.Bus
	ended int
}

func newTestWorker(sensor *fakeSensor, kb *fakeKeyboard, clock *fakeClock) *testWorker {
	tw := &testWorker{bus: event.NewBus(64)}
	l := New(config.DefaultSettings(), template.NewStore(), Options{
		Keyboard:      kb,
		Logger:        discardLogger(),
		Notifier:      tw.bus,
		Clock:         clock,
		OnBattleEnded: func() { tw.ended++ },
		Draw:          fixedDraw(5 * time.Second),
	})
	w := &worker{loop: l, logger: discardLogger(), done: make(chan struct{})}
	w.active.Store(true)
	l.current = w
	w.setup(context.Background(), sensor)
	tw.worker = w
	return tw
}

func (tw *testWorker) drain() []event.Event {
	var out []event.Event
	for {
		select {
		case e := <-tw.bus.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestBattleEntryRunsOnceAfterReleasingMovement(t *testing.T) {
	kb := newFakeKeyboard()
	sensor := newFakeSensor(template.Map)
	w := newTestWorker(sensor, kb, newFakeClock())

	w.tick()
	if w.state != Map || kb.heldCount() != 1 {
		t.Fatalf("expected to walk on the map, state %v held %d", w.state, kb.heldCount())
	}

	sensor.set(template.Run)
	kb.onPress = func(k input.Key) {
		if k == "f" {
			sensor.set()
		}
	}
	w.tick()

	want := []string{"hold:a", "release:a", "press:1", "press:f"}
	got := kb.events()
	if len(got) != len(want) {
		t.Fatalf("input = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("input = %v, want %v", got, want)
		}
	}
	if w.state != Battle {
		t.Fatalf("state = %v", w.state)
	}

	w.tick()
	if w.state != BattleLoading {
		t.Fatalf("nothing visible after a battle should be BattleLoading, got %v", w.state)
	}

	var changes []string
	for _, e := range w.drain() {
		if sc, ok := e.(event.StateChangedEvent); ok {
			changes = append(changes, sc.From+">"+sc.To)
		}
	}
	wantChanges := []string{"unknown>map", "map>battle", "battle>battle_loading"}
	if len(changes) != len(wantChanges) {
		t.Fatalf("state changes = %v, want %v", changes, wantChanges)
	}
	for i := range wantChanges {
		if changes[i] != wantChanges[i] {
			t.Fatalf("state changes = %v, want %v", changes, wantChanges)
		}
	}
}

func TestContinuousBattleConfirmsKill(t *testing.T) {
	kb := newFakeKeyboard()
	sensor := newFakeSensor(template.Kill)
	w := newTestWorker(sensor, kb, newFakeClock())

	// The classifier answers the kill prompt, the continuous step must not
	// press a second time in the same tick.
	w.tick()
	if kb.count("press:f") != 1 {
		t.Fatalf("input = %v", kb.events())
	}
}

func TestDeathRetriesResetOnOtherStates(t *testing.T) {
	kb := newFakeKeyboard()
	sensor := newFakeSensor(template.Died)
	w := newTestWorker(sensor, kb, newFakeClock())

	for i := 0; i < 3; i++ {
		w.tick()
	}
	if w.deps.session.DeathRetries != 3 || kb.count("press:w") != 3 {
		t.Fatalf("retries %d, input %v", w.deps.session.DeathRetries, kb.events())
	}

	sensor.set(template.Map)
	w.tick()
	if w.deps.session.DeathRetries != 0 {
		t.Fatalf("retries should reset once no longer dead, got %d", w.deps.session.DeathRetries)
	}
}

func TestDeathRetriesWrapAround(t *testing.T) {
	kb := newFakeKeyboard()
	w := newTestWorker(newFakeSensor(template.Died), kb, newFakeClock())

	for i := 0; i < 7; i++ {
		w.tick()
	}
	// Five attempts, one exhausted tick, then a fresh first attempt.
	if kb.count("press:w") != 6 || w.deps.session.DeathRetries != 1 {
		t.Fatalf("presses %d retries %d", kb.count("press:w"), w.deps.session.DeathRetries)
	}
}

func TestBattlePixelTransitions(t *testing.T) {
	end := color.RGBA{60, 232, 234, 255}
	other := color.RGBA{10, 20, 30, 255}
	sensor := newFakeSensor()
	sensor.pixels = []color.RGBA{other, end, end, other, end}
	w := newTestWorker(sensor, newFakeKeyboard(), newFakeClock())

	w.tick()
	if w.state != Loading || w.deps.session.InBattle {
		t.Fatalf("a pixel change on a loading screen must not start a battle (state %v)", w.state)
	}
	for i := 0; i < 4; i++ {
		w.tick()
	}
	if w.ended != 2 {
		t.Fatalf("battle ended callback ran %d times, want 2", w.ended)
	}
	ended := 0
	for _, e := range w.drain() {
		if _, ok := e.(event.BattleEndedEvent); ok {
			ended++
		}
	}
	if ended != 2 {
		t.Fatalf("got %d battle ended events, want 2", ended)
	}
}

func TestBattlePixelStartsBattleBeforeFirstState(t *testing.T) {
	sensor := newFakeSensor()
	sensor.pixels = []color.RGBA{{10, 20, 30, 255}}
	w := newTestWorker(sensor, newFakeKeyboard(), newFakeClock())

	w.checkBattlePixel(w.loop.settings.Load())
	if !w.deps.session.InBattle {
		t.Fatalf("a pixel change before any state was seen should start a battle")
	}
}

func TestPixelErrorReleasesMovement(t *testing.T) {
	kb := newFakeKeyboard()
	sensor := newFakeSensor(template.Map)
	sensor.pixelErr = errFake
	w := newTestWorker(sensor, kb, newFakeClock())

	w.tick()
	if kb.heldCount() != 0 {
		t.Fatalf("movement key should be released after a sampling error")
	}
}

func TestTickRecoversPanics(t *testing.T) {
	kb := newFakeKeyboard()
	clock := newFakeClock()
	sensor := newFakeSensor(template.Map)
	sensor.pixelPanic = true
	w := newTestWorker(sensor, kb, clock)
	start := clock.Now()

	w.tick()
	if kb.heldCount() != 0 {
		t.Fatalf("panic should release the movement key")
	}
	if waited := clock.Now().Sub(start); waited < 500*time.Millisecond {
		t.Fatalf("expected error backoff, waited %v", waited)
	}

	sensor.panicOn = template.Map
	sensor.pixelPanic = false
	w.tick()
	if w.state != Error {
		t.Fatalf("classifier panic should give Error, got %v", w.state)
	}
}

func TestRefreshAppliesHighlight(t *testing.T) {
	sensor := newFakeSensor()
	w := newTestWorker(sensor, newFakeKeyboard(), newFakeClock())
	if !sensor.highlight || sensor.highlightFor != 750*time.Millisecond {
		t.Fatalf("initial highlight settings not applied: %v %v", sensor.highlight, sensor.highlightFor)
	}

	s := config.DefaultSettings()
	s.ShowHighlight = false
	w.loop.Refresh(s)
	w.tick()
	if sensor.highlight {
		t.Fatalf("refreshed highlight setting not applied")
	}
}

func TestSnapshotPublished(t *testing.T) {
	w := newTestWorker(newFakeSensor(template.Map), newFakeKeyboard(), newFakeClock())
	w.tick()
	snap := w.loop.Snapshot()
	if !snap.Running || snap.State != Map || snap.Held != "a" || snap.CurrentAttack != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func fastSettings() config.Settings {
	s := config.DefaultSettings()
	s.Tuning.TickInterval = time.Millisecond
	s.Tuning.PollInterval = time.Millisecond
	return s
}

func TestStartStop(t *testing.T) {
	kb := newFakeKeyboard()
	sensor := newFakeSensor(template.Map)
	l := New(fastSettings(), template.NewStore(), Options{
		Sensors:  func(*template.Store) (Sensor, error) { return sensor, nil },
		Keyboard: kb,
		Logger:   discardLogger(),
	})

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !l.Running() {
		t.Fatalf("expected running")
	}
	if err := l.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Fatalf("second Start = %v, want ErrRunning", err)
	}
	if err := l.SetTemplates(template.NewStore()); !errors.Is(err, ErrRunning) {
		t.Fatalf("SetTemplates while running = %v, want ErrRunning", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for l.Snapshot().State != Map {
		if time.Now().After(deadline) {
			t.Fatalf("worker never reported the map state")
		}
		time.Sleep(time.Millisecond)
	}

	l.Stop()
	if l.Running() {
		t.Fatalf("still running after Stop")
	}
	if l.Snapshot() != (Snapshot{}) {
		t.Fatalf("snapshot not cleared: %+v", l.Snapshot())
	}
	if kb.heldCount() != 0 {
		t.Fatalf("keys left held after Stop")
	}
	if !sensor.isClosed() {
		t.Fatalf("sensor not closed")
	}

	l.Stop()
	if err := l.SetTemplates(template.NewStore()); err != nil {
		t.Fatalf("SetTemplates after Stop: %v", err)
	}
}

func TestStartReportsSensorErrors(t *testing.T) {
	l := New(fastSettings(), template.NewStore(), Options{
		Sensors:  func(*template.Store) (Sensor, error) { return nil, errFake },
		Keyboard: newFakeKeyboard(),
		Logger:   discardLogger(),
	})
	if err := l.Start(context.Background()); !errors.Is(err, errFake) {
		t.Fatalf("Start = %v, want the sensor error", err)
	}
	if l.Running() {
		t.Fatalf("failed start must not leave the loop running")
	}
}

func TestContextCancelEndsRun(t *testing.T) {
	kb := newFakeKeyboard()
	l := New(fastSettings(), template.NewStore(), Options{
		Sensors:  func(*template.Store) (Sensor, error) { return newFakeSensor(template.Map), nil },
		Keyboard: kb,
		Logger:   discardLogger(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	done := l.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not exit after cancel")
	}
	if l.Running() {
		t.Fatalf("still running after cancel")
	}
	if kb.heldCount() != 0 {
		t.Fatalf("keys left held after cancel")
	}
}
