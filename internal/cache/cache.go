// Package cache stores extraction results keyed by document text so that
// re-submitted documents skip the regex pass and the ML sidecars.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a string key-value store with per-entry TTL.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory builds a Cache from a Config.
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache registers a cache backend under a name. Backends call
// this from init.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates the backend named by config.Type, falling back to
// the in-memory cache for unknown types.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds settings for all cache backends.
type Config struct {
	// Type selects the backend: "memory" or "redis".
	Type string
	// Redis connection settings, ignored by the memory backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration
	// CleanupInterval controls expired-entry sweeps (memory backend only).
	CleanupInterval time.Duration
}

// DefaultConfig returns the memory backend with a day-long TTL.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// ResultKey derives the cache key for a document's extraction result.
// Hashing the text means two files with identical content share one
// entry regardless of filename.
func ResultKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "result:" + hex.EncodeToString(sum[:])
}
