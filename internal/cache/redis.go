package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/shopscout/catalog-api/internal/config"
)

// RedisCache implements Cache on top of go-redis. All operations are
// best-effort: errors are logged and reported as misses, never returned.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache from config and verifies the
// connection with a short ping.
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get returns the cached value for key, or ok == false on a miss or error.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores a key-value pair with TTL.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Delete removes the given keys.
func (r *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("cache delete failed")
	}
}

// FlushAll wipes the whole cache.
func (r *RedisCache) FlushAll(ctx context.Context) {
	if err := r.client.FlushAll(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("cache flush failed")
	}
}

// Healthy reports whether Redis answers a ping.
func (r *RedisCache) Healthy(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
