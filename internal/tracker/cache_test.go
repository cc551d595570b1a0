package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/covidwatch/pkg/redis"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", map[string]int{"cases": 1}, time.Hour))

	var got map[string]int
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["cases"])

	now = now.Add(time.Hour)
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found, "entry expires at exactly TTL")

	stats := c.Stats()
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)

	assert.Equal(t, 1, c.CleanExpired(ctx))
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, c.Set(ctx, "b", 2, time.Hour))
	require.NoError(t, c.Delete(ctx, "a", "b"))

	var v int
	found, _ := c.Get(ctx, "a", &v)
	assert.False(t, found)
}

func TestNewCache_DisabledRedisUsesMemory(t *testing.T) {
	c := NewCache(redis.Disabled())
	assert.IsType(t, &MemoryCache{}, c)
}

func TestRedisCache_Disabled(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCache(redis.NewCache(redis.Disabled(), "test"))

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, c.CleanExpired(ctx))
	assert.Equal(t, int64(1), c.Stats().Misses)
}
