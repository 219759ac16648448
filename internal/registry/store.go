package registry

import (
	"context"
	"time"
)

// Store is the key-value contract every registry consumer depends on.
// Implementations may back it with Redis, an in-process map, or any
// other store honoring per-key TTL and glob-style key scans. No
// transactional guarantees exist across keys; each call is a single
// independent read or write.
type Store interface {
	// Set writes a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Expire re-arms the TTL on an existing key. Missing keys are a no-op.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Keys returns all keys matching a glob pattern such as "status:*".
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Ping reports backend reachability.
	Ping(ctx context.Context) error
}
