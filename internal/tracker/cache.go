package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/wonny/covidwatch/pkg/redis"
)

// Cache stores upstream payloads for CACHE_EXPIRATION
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	CleanExpired(ctx context.Context) int
	Stats() CacheStats
}

// CacheStats summarises cache usage
type CacheStats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}

type memEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is an in-process TTL cache
// ⭐ SSOT: 응답 캐싱은 Cache 구현체에서만
type MemoryCache struct {
	entries *xsync.MapOf[string, memEntry]
	now     func() time.Time
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewMemoryCache creates an empty memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: xsync.NewMapOf[string, memEntry](),
		now:     time.Now,
	}
}

// Get decodes a fresh entry into dest
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	e, ok := c.entries.Load(key)
	if !ok || !c.now().Before(e.expires) {
		c.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	c.hits.Add(1)
	return true, nil
}

// Set stores value until now+ttl
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	c.entries.Store(key, memEntry{data: data, expires: c.now().Add(ttl)})
	return nil
}

// Delete removes entries
func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.entries.Delete(k)
	}
	return nil
}

// CleanExpired drops expired entries and returns how many were removed
func (c *MemoryCache) CleanExpired(_ context.Context) int {
	now := c.now()
	var stale []string
	c.entries.Range(func(k string, e memEntry) bool {
		if !now.Before(e.expires) {
			stale = append(stale, k)
		}
		return true
	})
	for _, k := range stale {
		c.entries.Delete(k)
	}
	return len(stale)
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	return CacheStats{
		Backend: "memory",
		Entries: c.entries.Size(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// RedisCache shares the cache between instances through Redis
type RedisCache struct {
	cache  *redis.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache wraps a pkg/redis cache
func NewRedisCache(cache *redis.Cache) *RedisCache {
	return &RedisCache{cache: cache}
}

// Get decodes a cached value into dest
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	found, err := c.cache.Get(ctx, key, dest)
	if found {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return found, err
}

// Set stores a value with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.cache.Set(ctx, key, value, ttl)
}

// Delete removes entries
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.cache.Delete(ctx, keys...)
}

// CleanExpired is a no-op; Redis expires keys itself
func (c *RedisCache) CleanExpired(context.Context) int {
	return 0
}

// Stats returns cache statistics; Entries is not tracked for Redis
func (c *RedisCache) Stats() CacheStats {
	return CacheStats{
		Backend: "redis",
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// NewCache picks Redis when the client is enabled, memory otherwise
func NewCache(client *redis.Client) Cache {
	if client.Enabled() {
		return NewRedisCache(redis.NewCache(client, "covidwatch"))
	}
	return NewMemoryCache()
}
