// Package cache defines a small string cache used for read-side lookups.
package cache

import (
	"context"
	"time"
)

// Cache stores string values by key with an expiry.
type Cache interface {
	// Get returns the value and true, or "" and false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
