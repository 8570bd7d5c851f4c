// Package event carries fire-and-forget notifications from the worker
// goroutine to whatever renders them (log view, highlight overlay).
package event

import (
	"image"
	"log/slog"
	"time"
)

type Event interface {
	Message() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	message    string
	occurredAt time.Time
}

func (b BaseEvent) Message() string       { return b.message }
func (b BaseEvent) OccurredAt() time.Time { return b.occurredAt }

// Text creates a BaseEvent stamped with the current time.
func Text(message string) BaseEvent {
	return BaseEvent{message: message, occurredAt: time.Now()}
}

// LogLineEvent mirrors a log record for a status view.
type LogLineEvent struct {
	BaseEvent
	Level slog.Level
}

func LogLine(be BaseEvent, level slog.Level) LogLineEvent {
	return LogLineEvent{BaseEvent: be, Level: level}
}

// HighlightEvent asks the overlay to outline Rect (screen coordinates) for Duration.
type HighlightEvent struct {
	BaseEvent
	Rect     image.Rectangle
	Duration time.Duration
}

func Highlight(be BaseEvent, rect image.Rectangle, duration time.Duration) HighlightEvent {
	return HighlightEvent{BaseEvent: be, Rect: rect, Duration: duration}
}

// BattleEndedEvent is sent once per detected battle end.
type BattleEndedEvent struct {
	BaseEvent
}

func BattleEnded(be BaseEvent) BattleEndedEvent {
	return BattleEndedEvent{BaseEvent: be}
}

type StateChangedEvent struct {
	BaseEvent
	From string
	To   string
}

func StateChanged(be BaseEvent, from, to string) StateChangedEvent {
	return StateChangedEvent{BaseEvent: be, From: from, To: to}
}
