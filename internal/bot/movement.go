package bot

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lkarlslund/autolevel/internal/config"
	"github.com/lkarlslund/autolevel/internal/input"
)

type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

type MovementState struct {
	Mode        config.MovementMode
	Axis        Axis
	LastSwitch  time.Time
	SwitchAfter time.Duration
	// Held is the directional key currently down, empty when none is.
	Held input.Key
	Step int
}

// Movement walks back and forth on the map to run into encounters. At most
// one directional key is down at any time.
type Movement struct {
	*deps
	state MovementState
	draw  func(lo, hi time.Duration) time.Duration
}

func uniformDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func newMovement(d *deps, draw func(lo, hi time.Duration) time.Duration) *Movement {
	if draw == nil {
		draw = uniformDuration
	}
	return &Movement{deps: d, draw: draw}
}

func (m *Movement) State() MovementState {
	return m.state
}

func (m *Movement) pair(s *config.Settings) [2]string {
	if m.state.Axis == Vertical {
		return s.Keys.Vertical
	}
	return s.Keys.Horizontal
}

// release lifts the held key. It reports whether the key is now up.
func (m *Movement) release() bool {
	if m.state.Held == "" {
		return true
	}
	if err := m.keys.Release(m.state.Held); err != nil {
		m.logger.Warn("Could not release movement key", slog.String("key", string(m.state.Held)), slog.Any("error", err))
		return false
	}
	m.state.Held = ""
	return true
}

// Tick advances movement by one step. Only called while on the map.
func (m *Movement) Tick() {
	s := m.settings()
	now := m.clock.Now()
	m.state.Mode = s.MovementMode

	if m.state.LastSwitch.IsZero() {
		m.state.LastSwitch = now
		m.state.SwitchAfter = m.draw(s.Tuning.DirectionMin, s.Tuning.DirectionMax)
	}

	switch s.MovementMode {
	case config.MovementAD:
		m.state.Axis = Horizontal
	case config.MovementSW:
		m.state.Axis = Vertical
	default:
		if now.Sub(m.state.LastSwitch) >= m.state.SwitchAfter {
			if m.state.Axis == Horizontal {
				m.state.Axis = Vertical
			} else {
				m.state.Axis = Horizontal
			}
			m.state.LastSwitch = now
			m.state.SwitchAfter = m.draw(s.Tuning.DirectionMin, s.Tuning.DirectionMax)
			m.logger.Debug("Changing movement direction", slog.String("axis", m.state.Axis.String()))
			if !m.release() {
				return
			}
		}
	}

	want := input.Key(m.pair(s)[m.state.Step%2])
	if want == m.state.Held {
		return
	}
	if !m.release() {
		return
	}
	if err := m.keys.Hold(want); err != nil {
		m.logger.Warn("Could not hold movement key", slog.String("key", string(want)), slog.Any("error", err))
		return
	}
	m.state.Held = want
	m.state.Step++
}

// Stop lifts the held key, if any.
func (m *Movement) Stop() {
	if m.state.Held == "" {
		return
	}
	if err := m.keys.Release(m.state.Held); err != nil {
		m.logger.Warn("Could not release movement key", slog.String("key", string(m.state.Held)), slog.Any("error", err))
	}
	m.state.Held = ""
}
