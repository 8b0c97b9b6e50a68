package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryCleanupInterval controls how often expired entries are purged.
const memoryCleanupInterval = 10 * time.Minute

// Memory is an in-process TTL cache. Entries expire per-key; the payload
// bytes are stored as written, so hits are byte-identical to the original
// computation.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("cache key %q holds %T, want []byte", key, v)
	}
	return b, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
