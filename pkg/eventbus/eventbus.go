// Package eventbus defines the publish/subscribe contract for domain events.
package eventbus

import (
	"context"

	"github.com/amirasaad/masroofy/pkg/domain/events"
)

// HandlerFunc handles one event. A returned error is logged by the bus.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus dispatches events to handlers registered by type.
type Bus interface {
	Register(eventType events.EventType, handler HandlerFunc)
	Emit(ctx context.Context, event events.Event) error
}
