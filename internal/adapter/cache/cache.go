// Package cache is the ephemeral key-value layer in front of expensive
// computations. Implementations are best-effort: a failing cache must
// degrade to the authoritative path, never break it.
package cache

import (
	"context"
	"time"
)

// Cache is a get/put-with-ttl key-value abstraction. The context is
// accepted so a networked implementation can honor deadlines; the
// in-process implementation ignores it.
type Cache interface {
	// Get returns the stored payload and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the payload under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
