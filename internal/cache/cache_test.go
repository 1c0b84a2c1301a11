package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	config := Config{
		Type:            "memory",
		DefaultTTL:      2 * time.Second,
		CleanupInterval: time.Second,
	}
	cache, err := NewMemoryCache(config)
	require.NoError(t, err)

	err = cache.Set("key1", "value1", 0)
	require.NoError(t, err)

	val, found, err := cache.Get("key1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	val, found, err = cache.Get("non-existent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	err = cache.Set("expire-soon", "temp", 500*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, found, err = cache.Get("expire-soon")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set("to-delete", "x", 0))
	require.NoError(t, cache.Delete("to-delete"))
	_, found, _ = cache.Get("to-delete")
	assert.False(t, found)

	require.NoError(t, cache.Set("key2", "value2", 0))
	require.NoError(t, cache.Clear())
	_, found, _ = cache.Get("key2")
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	server := miniredis.RunT(t)

	config := Config{
		Type:       "redis",
		RedisAddr:  server.Addr(),
		DefaultTTL: 2 * time.Second,
	}
	cache, err := NewRedisCache(config)
	require.NoError(t, err)

	err = cache.Set("redis-key1", "redis-value1", time.Minute)
	require.NoError(t, err)

	val, found, err := cache.Get("redis-key1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "redis-value1", val)

	_, found, err = cache.Get("redis-non-existent")
	require.NoError(t, err)
	assert.False(t, found)

	// miniredis does not tick time on its own
	require.NoError(t, cache.Set("redis-expire-soon", "temp", time.Second))
	server.FastForward(2 * time.Second)
	_, found, err = cache.Get("redis-expire-soon")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set("redis-to-delete", "x", time.Minute))
	require.NoError(t, cache.Delete("redis-to-delete"))
	_, found, _ = cache.Get("redis-to-delete")
	assert.False(t, found)
}

func TestCacheFactory(t *testing.T) {
	memCache, err := NewCache(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, memCache)

	server := miniredis.RunT(t)
	redisCache, err := NewCache(Config{Type: "redis", RedisAddr: server.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, redisCache)

	// unknown types fall back to memory
	unknownCache, err := NewCache(Config{Type: "unknown-type"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, unknownCache)
}

func TestResultKey(t *testing.T) {
	a := ResultKey("ИНН 2310031475")
	b := ResultKey("ИНН 2310031475")
	c := ResultKey("другой текст")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "result:")
	// sha256 hex digest after the prefix
	assert.Len(t, a, len("result:")+64)
}
