package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
)

// MemoryEventBus dispatches synchronously in the emitting goroutine.
// Handler errors are logged, never returned to the emitter.
type MemoryEventBus struct {
	handlers  *handlerSet
	logger    *slog.Logger
	mu        sync.Mutex
	published []events.Event
}

// NewWithMemory creates an in-process event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: newHandlerSet(),
		logger:   logger.With("bus", "memory"),
	}
}

func (b *MemoryEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlers.add(eventType, handler)
}

func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	b.mu.Unlock()

	dispatch(ctx, b.logger, event, b.handlers.get(events.EventType(event.Type())))
	return nil
}

// Published returns every event emitted so far.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

// ClearPublished forgets the emitted events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
