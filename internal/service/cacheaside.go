package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/seismoview/quake-context-service/internal/adapter/cache"
	"github.com/seismoview/quake-context-service/internal/domain"
	"github.com/seismoview/quake-context-service/internal/observability"
)

// cacheWriteTimeout bounds the detached write-back so a stuck cache
// cannot leak goroutines indefinitely.
const cacheWriteTimeout = 5 * time.Second

// CacheAside wraps a computation with the ephemeral cache. Reads are
// best-effort: a cache failure degrades to the authoritative computation.
// Writes are fire-and-forget: the response never waits on them.
//
// There is no single-flight deduplication; concurrent misses on the same
// key each run the computation. Acceptable at this workload's scale.
type CacheAside struct {
	cache   cache.Cache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCacheAside creates the orchestrator.
func NewCacheAside(c cache.Cache, logger *slog.Logger, metrics *observability.Metrics) *CacheAside {
	return &CacheAside{cache: c, logger: logger, metrics: metrics}
}

// Do returns the cached payload for key, or runs compute, returns its
// JSON encoding, and schedules a background cache write with the given
// TTL. The second return value reports whether this was a cache hit.
func (ca *CacheAside) Do(ctx context.Context, operation, key string, ttl time.Duration, compute func(ctx context.Context) (any, error)) ([]byte, bool, error) {
	payload, ok, err := ca.cache.Get(ctx, key)
	if err != nil {
		// Never fail the request because the cache is unhappy.
		ca.logger.Warn("cache read failed", "operation", operation, "key", key, "error", err)
		ca.metrics.CacheLookups.WithLabelValues(operation, "error").Inc()
	} else if ok {
		ca.metrics.CacheLookups.WithLabelValues(operation, "hit").Inc()
		return payload, true, nil
	} else {
		ca.metrics.CacheLookups.WithLabelValues(operation, "miss").Inc()
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	payload, err = json.Marshal(result)
	if err != nil {
		return nil, false, fmt.Errorf("encode %s result: %w", operation, err)
	}

	// Detached from the request lifecycle: the caller gets its response
	// regardless of whether this write ever lands.
	go ca.writeBack(operation, key, payload, ttl)

	return payload, false, nil
}

// Invalidate drops a cached entry whose source of truth just changed, so
// the next read recomputes. Best-effort like every cache interaction.
func (ca *CacheAside) Invalidate(ctx context.Context, operation, key string) {
	if err := ca.cache.Delete(ctx, key); err != nil {
		ca.logger.Warn("cache invalidate failed", "operation", operation, "key", key, "error", err)
	}
}

func (ca *CacheAside) writeBack(operation, key string, payload []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	if err := ca.cache.Set(ctx, key, payload, ttl); err != nil {
		ca.logger.Warn("cache write failed", "operation", operation, "key", key, "error", err)
		ca.metrics.CacheWriteFailures.Inc()
	}
}

// Cache keys are deterministic functions of the operation and its inputs.
// The version segment allows payload shape changes without a flush.

func faultContextKey(eventID string, radiusKm float64, limit int) string {
	return fmt.Sprintf("fault-context:v1:%s:r%g:l%d", eventID, radiusKm, limit)
}

// clustersKey hashes the batch's event IDs so distinct batches never
// share an entry. Reordering the same batch is merely a cache miss.
func clustersKey(events []domain.Event, maxDistanceKm float64, minQuakes int) string {
	h := fnv.New64a()
	for _, e := range events {
		h.Write([]byte(e.ID))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("clusters:v1:%016x:d%g:m%d", h.Sum64(), maxDistanceKm, minQuakes)
}

func definitionKey(id string) string {
	return fmt.Sprintf("cluster-definition:v1:%s", id)
}
