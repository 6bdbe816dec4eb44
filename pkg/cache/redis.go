package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// Redis is a Redis-backed research cache. Values are stored as JSON and
// expiry is handled natively by the server, so no sweep is needed.
// Losing a write race only costs a redundant external call: writes for the
// same key carry the same researched value.
type Redis[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedis builds a Redis-backed cache. The prefix namespaces keys so
// multiple caches can share one server.
func NewRedis[T any](addr, password, prefix string) *Redis[T] {
	if prefix == "" {
		prefix = "paintcode:research"
	}
	return &Redis[T]{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}
}

// Get fetches and decodes a cached value. Redis errors degrade to a miss.
func (r *Redis[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	raw, err := r.client.Get(ctx, r.prefix+":"+key).Bytes()
	if err == redis.Nil {
		return zero, false
	}
	if err != nil {
		slog.Warn("research cache get failed", "key", key, "err", err)
		return zero, false
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		slog.Warn("research cache entry corrupt, dropping", "key", key, "err", err)
		r.Delete(key)
		return zero, false
	}
	return value, true
}

// Set stores the value with the given TTL. Errors are logged, not returned:
// a failed cache write only costs a future repeat lookup.
func (r *Redis[T]) Set(key string, value T, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("research cache encode failed", "key", key, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+":"+key, raw, ttl).Err(); err != nil {
		slog.Warn("research cache set failed", "key", key, "err", err)
	}
}

// Delete removes a key.
func (r *Redis[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Del(ctx, r.prefix+":"+key).Err(); err != nil {
		slog.Warn("research cache delete failed", "key", key, "err", err)
	}
}

// Len counts entries under this cache's prefix. Used for diagnostics only.
func (r *Redis[T]) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	var count int
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Close releases the underlying client.
func (r *Redis[T]) Close() {
	_ = r.client.Close()
}
