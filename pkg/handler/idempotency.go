package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"golang.org/x/sync/singleflight"
)

// KeyExtractor extracts an idempotency key from an event.
type KeyExtractor func(events.Event) string

// DefaultIdempotencyTTL bounds how long a handled key is remembered.
// Redeliveries arrive well within it.
const DefaultIdempotencyTTL = time.Hour

// IdempotencyTracker remembers which keys were handled successfully, for
// ttl. Expired keys are swept at most once per ttl, on write.
type IdempotencyTracker struct {
	mu        sync.Mutex
	processed map[string]time.Time
	lastSweep time.Time
	ttl       time.Duration
	now       func() time.Time
	inflight  singleflight.Group
}

// TrackerOption configures an IdempotencyTracker.
type TrackerOption func(*IdempotencyTracker)

// WithTTL overrides DefaultIdempotencyTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) TrackerOption {
	return func(t *IdempotencyTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func NewIdempotencyTracker(opts ...TrackerOption) *IdempotencyTracker {
	t := &IdempotencyTracker{
		processed: make(map[string]time.Time),
		ttl:       DefaultIdempotencyTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.lastSweep = t.now()
	return t
}

func (t *IdempotencyTracker) seen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.processed[key]
	if !ok {
		return false
	}
	if t.now().Sub(at) >= t.ttl {
		delete(t.processed, key)
		return false
	}
	return true
}

func (t *IdempotencyTracker) mark(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.processed[key] = now
	if now.Sub(t.lastSweep) < t.ttl {
		return
	}
	for k, at := range t.processed {
		if now.Sub(at) >= t.ttl {
			delete(t.processed, k)
		}
	}
	t.lastSweep = now
}

// Len reports how many keys are currently remembered.
func (t *IdempotencyTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.processed)
}

// WithIdempotency skips events whose key already succeeded. Concurrent
// deliveries of one key share a single handler run.
func WithIdempotency(
	handler eventbus.HandlerFunc,
	tracker *IdempotencyTracker,
	keyExtractor KeyExtractor,
	handlerName string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		key := keyExtractor(e)
		if key == "" {
			return handler(ctx, e)
		}
		if tracker.seen(key) {
			logger.Debug("Skipping already handled event",
				"handler", handlerName,
				"event_type", e.Type(),
				"idempotency_key", key,
			)
			return nil
		}
		_, err, _ := tracker.inflight.Do(key, func() (any, error) {
			if tracker.seen(key) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.mark(key)
			return nil, nil
		})
		return err
	}
}
