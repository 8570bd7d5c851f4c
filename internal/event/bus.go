package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Bus is a buffered, non-blocking event channel. Senders never wait: when the
// buffer is full the event is dropped and counted.
type Bus struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Uint64
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{ch: make(chan Event, size)}
}

// Send delivers e if there is room. It is safe to call on a nil or closed bus.
func (b *Bus) Send(e Event) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.ch <- e:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

func (b *Bus) Events() <-chan Event {
	return b.ch
}

func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}

type Handler func(ctx context.Context, e Event) error

// Listener fans events from a bus out to registered handlers on the
// goroutine that calls Listen.
type Listener struct {
	bus      *Bus
	logger   *slog.Logger
	mu       sync.Mutex
	handlers []Handler
}

func NewListener(bus *Bus, logger *slog.Logger) *Listener {
	return &Listener{bus: bus, logger: logger}
}

func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Listen blocks until ctx is done or the bus is closed.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-l.bus.Events():
			if !ok {
				return nil
			}
			l.dispatch(ctx, e)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, e Event) {
	l.mu.Lock()
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			l.logger.Debug("Event handler failed", slog.String("event", e.Message()), slog.Any("error", err))
		}
	}
}
