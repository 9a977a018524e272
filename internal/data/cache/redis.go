// Package cache provides the Redis-backed TTL cache the market-data
// provider uses for cached lookups. Cache misses and Redis outages are
// both just misses; the provider falls through to the network.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Redis is a thin TTL cache over one Redis connection.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a cache with a key prefix so multiple deployments can
// share one Redis instance.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

// Get returns the cached bytes and whether the key was present and fresh.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed; treating as miss")
		return nil, false
	}
	return val, true
}

// Set stores bytes under a TTL. Failures are logged and swallowed; a cache
// that cannot write only costs a future network round trip.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
