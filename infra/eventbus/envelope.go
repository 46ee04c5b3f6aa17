package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
)

// envelope is the wire format shared by the broker backends.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	raw, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return raw, nil
}

// decode rebuilds an event through events.EventTypes. Decoded events are
// pointers.
func decode(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	constructor, ok := events.EventTypes[events.EventType(env.Type)]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return evt, nil
}

// handlerSet is the registry shared by all backends.
type handlerSet struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]eventbus.HandlerFunc
}

func newHandlerSet() *handlerSet {
	return &handlerSet{handlers: make(map[events.EventType][]eventbus.HandlerFunc)}
}

// add registers h and reports whether it is the first handler for t.
func (s *handlerSet) add(t events.EventType, h eventbus.HandlerFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = append(s.handlers[t], h)
	return len(s.handlers[t]) == 1
}

func (s *handlerSet) get(t events.EventType) []eventbus.HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]eventbus.HandlerFunc(nil), s.handlers[t]...)
}

// dispatch runs every handler, recovering panics, and reports whether all succeeded.
func dispatch(ctx context.Context, logger *slog.Logger, evt events.Event, handlers []eventbus.HandlerFunc) bool {
	ok := true
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					ok = false
					logger.Error("panic recovered in event handler", "event_type", evt.Type(), "panic", r)
				}
			}()
			if err := h(ctx, evt); err != nil {
				ok = false
				logger.Error("event handler failed", "event_type", evt.Type(), "error", err)
			}
		}()
	}
	return ok
}

func topicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType.String()))
}

func dlqNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType.String()))
}
