package intel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"vigia/internal/identity"
	redisplatform "vigia/internal/platform/redis"
)

// Cache stores gathered intelligence per entity name so batch runs do not
// re-query external sources for the same supplier. Keys go through name
// normalization, matching the rest of the pipeline.
type Cache interface {
	Get(ctx context.Context, name string) (Result, bool)
	Set(ctx context.Context, name string, result Result)
}

// MemoryCache is the in-process fallback when Redis is not configured. It
// lives for the process; batch runs are short enough that no eviction is
// needed at target scale.
type MemoryCache struct {
	mu      sync.RWMutex
	results map[string]Result
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: make(map[string]Result)}
}

func (c *MemoryCache) Get(_ context.Context, name string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[cacheKey(name)]
	return r, ok
}

func (c *MemoryCache) Set(_ context.Context, name string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[cacheKey(name)] = result
}

// RedisCache shares gathered intelligence across processes with a TTL.
// Failures degrade to cache misses; the gatherer just queries again.
type RedisCache struct {
	client *redisplatform.Client
	ttl    time.Duration
}

func NewRedisCache(client *redisplatform.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, name string) (Result, bool) {
	raw, err := c.client.Get(ctx, cacheKey(name)).Bytes()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, false
	}
	return result, true
}

func (c *RedisCache) Set(ctx context.Context, name string, result Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(name), raw, c.ttl)
}

func cacheKey(name string) string {
	return "vigia:intel:" + identity.NormalizeName(name)
}
