package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismoview/quake-context-service/internal/domain"
)

func TestCacheAside_Do(t *testing.T) {
	ctx := context.Background()

	type payload struct {
		Value string `json:"value"`
	}

	t.Run("miss computes and writes back", func(t *testing.T) {
		c := newFakeCache()
		ca := NewCacheAside(c, testLogger(), testMetrics())

		var calls atomic.Int32
		compute := func(context.Context) (any, error) {
			calls.Add(1)
			return payload{Value: "fresh"}, nil
		}

		got, hit, err := ca.Do(ctx, "test", "k1", time.Minute, compute)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.JSONEq(t, `{"value":"fresh"}`, string(got))
		assert.Equal(t, int32(1), calls.Load())

		// The write-back is detached from the request.
		assert.Eventually(t, func() bool { return c.has("k1") }, time.Second, 5*time.Millisecond)
	})

	t.Run("hit returns identical bytes without recomputing", func(t *testing.T) {
		c := newFakeCache()
		ca := NewCacheAside(c, testLogger(), testMetrics())

		var calls atomic.Int32
		compute := func(context.Context) (any, error) {
			calls.Add(1)
			return payload{Value: "fresh"}, nil
		}

		first, hit, err := ca.Do(ctx, "test", "k1", time.Minute, compute)
		require.NoError(t, err)
		require.False(t, hit)
		require.Eventually(t, func() bool { return c.has("k1") }, time.Second, 5*time.Millisecond)

		second, hit, err := ca.Do(ctx, "test", "k1", time.Minute, compute)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("cache read failure degrades to compute", func(t *testing.T) {
		c := newFakeCache()
		c.getErr = errors.New("cache down")
		ca := NewCacheAside(c, testLogger(), testMetrics())

		got, hit, err := ca.Do(ctx, "test", "k1", time.Minute, func(context.Context) (any, error) {
			return payload{Value: "fallback"}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.JSONEq(t, `{"value":"fallback"}`, string(got))
	})

	t.Run("cache write failure does not affect the response", func(t *testing.T) {
		c := newFakeCache()
		c.setErr = errors.New("cache down")
		ca := NewCacheAside(c, testLogger(), testMetrics())

		got, hit, err := ca.Do(ctx, "test", "k1", time.Minute, func(context.Context) (any, error) {
			return payload{Value: "fresh"}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.JSONEq(t, `{"value":"fresh"}`, string(got))

		// The failed write is still attempted in the background.
		assert.Eventually(t, func() bool { return c.setCount() == 1 }, time.Second, 5*time.Millisecond)
		assert.False(t, c.has("k1"))
	})

	t.Run("compute error propagates and nothing is cached", func(t *testing.T) {
		c := newFakeCache()
		ca := NewCacheAside(c, testLogger(), testMetrics())

		_, _, err := ca.Do(ctx, "test", "k1", time.Minute, func(context.Context) (any, error) {
			return nil, errors.New("boom")
		})
		require.Error(t, err)
		assert.Equal(t, 0, c.setCount())
		assert.False(t, c.has("k1"))
	})
}

func TestCacheKeys(t *testing.T) {
	batch := []domain.Event{{ID: "ev-a"}, {ID: "ev-b"}}

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		assert.Equal(t, faultContextKey("ev-1", 100, 5), faultContextKey("ev-1", 100, 5))
		assert.Equal(t, clustersKey(batch, 35, 2), clustersKey(batch, 35, 2))
		assert.Equal(t, definitionKey("socal-swarm"), definitionKey("socal-swarm"))
	})

	t.Run("distinct inputs get distinct keys", func(t *testing.T) {
		assert.NotEqual(t, faultContextKey("ev-1", 100, 5), faultContextKey("ev-1", 50, 5))
		assert.NotEqual(t, faultContextKey("ev-1", 100, 5), faultContextKey("ev-1", 100, 3))
		assert.NotEqual(t, faultContextKey("ev-1", 100, 5), faultContextKey("ev-2", 100, 5))
		assert.NotEqual(t, clustersKey(batch, 35, 2), clustersKey(batch, 35, 3))
		assert.NotEqual(t, definitionKey("a"), definitionKey("b"))
	})

	t.Run("same-size batches with different members do not collide", func(t *testing.T) {
		other := []domain.Event{{ID: "ev-c"}, {ID: "ev-d"}}
		assert.NotEqual(t, clustersKey(batch, 35, 2), clustersKey(other, 35, 2))
	})
}
