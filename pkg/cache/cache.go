// Package cache provides a small key/value store with TTLs.
//
// Values are JSON encoded, so the Redis and in-memory stores behave the same
// way: a value read back is a decoded copy, never the original.
package cache

import (
	"context"
	"time"
)

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	// Get decodes the value under key into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
}
