package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

const (
	resolveKeyPrefix = "site:resolve:"      // Cached lookup: site:resolve:{name}
	resolveIndexKey  = "site:resolve:index" // Set of currently cached names
	resolveTTL       = 10 * time.Minute
)

// ResolutionCache memoizes name-to-record lookups in Redis. The lifecycle
// engine only ever invalidates it; lookups are issued by the name-resolution
// path in the HTTP layer.
type ResolutionCache struct {
	client *redis.Client
}

// NewResolutionCache creates a new ResolutionCache.
func NewResolutionCache(client *redis.Client) *ResolutionCache {
	return &ResolutionCache{client: client}
}

// Lookup returns the cached record for name, or nil on a miss.
func (c *ResolutionCache) Lookup(ctx context.Context, name string) (*domain.ProjectRecord, error) {
	data, err := c.client.Get(ctx, resolveKeyPrefix+name).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup %q: %w", name, err)
	}

	var rec domain.ProjectRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("cache unmarshal %q: %w", name, err)
	}
	return &rec, nil
}

// Store caches a resolved record.
func (c *ResolutionCache) Store(ctx context.Context, rec *domain.ProjectRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", rec.Name, err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, resolveKeyPrefix+rec.Name, data, resolveTTL)
	pipe.SAdd(ctx, resolveIndexKey, rec.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache store %q: %w", rec.Name, err)
	}
	return nil
}

// Invalidate drops every cached resolution. Called by the engine after any
// mutation so stale name-to-record mappings are never observed.
func (c *ResolutionCache) Invalidate(ctx context.Context) error {
	names, err := c.client.SMembers(ctx, resolveIndexKey).Result()
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}

	pipe := c.client.Pipeline()
	for _, name := range names {
		pipe.Del(ctx, resolveKeyPrefix+name)
	}
	pipe.Del(ctx, resolveIndexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
