package cache

import (
	"context"
	"time"
)

// Cache is the capability handed to services that want read-through caching.
// It is never a source of truth: a miss, an error, or an unavailable backend
// all look the same to the caller (ok == false), and writes are best-effort.
// Implementations log failures themselves and never return them.
type Cache interface {
	// Get returns the cached value for key, or ok == false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string)
	// FlushAll wipes the whole cache.
	FlushAll(ctx context.Context)
	// Healthy reports whether the backend is reachable.
	Healthy(ctx context.Context) bool
}

// Noop is the Cache used when no backend is configured. Every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, ...string)                  {}
func (Noop) FlushAll(context.Context)                           {}
func (Noop) Healthy(context.Context) bool                       { return false }
