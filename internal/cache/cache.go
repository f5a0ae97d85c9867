package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations
// This abstraction allows swapping cache implementations (Redis, Memcached, in-memory)
type Cache interface {
	// Set stores a key-value pair with expiration
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Get retrieves a value by key; a missing key yields "" with no error
	Get(ctx context.Context, key string) (string, error)

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Increment atomically increments an integer counter and returns its new value
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on an existing key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping verifies the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}
