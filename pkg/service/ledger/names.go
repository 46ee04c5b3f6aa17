package ledger

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/amirasaad/masroofy/pkg/cache"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultNameTTL is used when the resolver is built with a zero TTL.
const DefaultNameTTL = 10 * time.Minute

// NameKey is the cache key holding the display name of an account.
func NameKey(id uuid.UUID) string {
	return "account:name:" + id.String()
}

// NameResolver resolves display names through an optional cache. Concurrent
// loads of the same id set share one directory query.
type NameResolver struct {
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewNameResolver creates a resolver. c may be nil to always read the directory.
func NewNameResolver(c cache.Cache, ttl time.Duration, logger *slog.Logger) *NameResolver {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	return &NameResolver{cache: c, ttl: ttl, logger: logger}
}

// Resolve returns the names it could find. Unknown ids are absent from the map.
func (r *NameResolver) Resolve(
	ctx context.Context,
	accounts repository.AccountRepository,
	ids []uuid.UUID,
) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		if _, seen := names[id]; seen || slices.Contains(missing, id) {
			continue
		}
		if name, ok := r.cached(ctx, id); ok {
			names[id] = name
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names, nil
	}

	v, err, _ := r.group.Do(flightKey(missing), func() (any, error) {
		loaded, err := accounts.Names(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, name := range loaded {
			r.store(ctx, id, name)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	for id, name := range v.(map[uuid.UUID]string) {
		names[id] = name
	}
	return names, nil
}

// Invalidate drops the cached name of id.
func (r *NameResolver) Invalidate(ctx context.Context, id uuid.UUID) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, NameKey(id))
}

func (r *NameResolver) cached(ctx context.Context, id uuid.UUID) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	name, ok, err := r.cache.Get(ctx, NameKey(id))
	if err != nil {
		r.logger.Warn("Name cache read failed", "account_id", id, "error", err)
		return "", false
	}
	return name, ok
}

func (r *NameResolver) store(ctx context.Context, id uuid.UUID, name string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, NameKey(id), name, r.ttl); err != nil {
		r.logger.Warn("Name cache write failed", "account_id", id, "error", err)
	}
}

func flightKey(ids []uuid.UUID) string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}
