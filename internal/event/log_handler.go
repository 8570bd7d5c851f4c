package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogHandler forwards every record to next and mirrors records at or above
// Level onto the bus as LogLineEvents.
type LogHandler struct {
	next  slog.Handler
	bus   *Bus
	level slog.Level
	attrs []slog.Attr
}

func NewLogHandler(next slog.Handler, bus *Bus, level slog.Level) *LogHandler {
	return &LogHandler{next: next, bus: bus, level: level}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.next.Handle(ctx, r)
	if r.Level < h.level {
		return err
	}

	var sb strings.Builder
	sb.WriteString(r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		return true
	})
	h.bus.Send(LogLine(BaseEvent{message: sb.String(), occurredAt: r.Time}, r.Level))
	return err
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &LogHandler{next: h.next.WithAttrs(attrs), bus: h.bus, level: h.level, attrs: merged}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{next: h.next.WithGroup(name), bus: h.bus, level: h.level, attrs: h.attrs}
}
