package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on unknown key", func(t *testing.T) {
		m := NewMemory()
		_, ok, err := m.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get returns identical bytes", func(t *testing.T) {
		m := NewMemory()
		payload := []byte(`{"clusters":[]}`)
		require.NoError(t, m.Set(ctx, "k", payload, time.Minute))

		got, ok, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, payload, got)
	})

	t.Run("entries expire after the TTL", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Millisecond))

		assert.Eventually(t, func() bool {
			_, ok, _ := m.Get(ctx, "k")
			return !ok
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
		require.NoError(t, m.Delete(ctx, "k"))

		_, ok, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		// Absent keys delete cleanly.
		assert.NoError(t, m.Delete(ctx, "k"))
	})

	t.Run("overwrite replaces the payload", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", []byte("old"), time.Minute))
		require.NoError(t, m.Set(ctx, "k", []byte("new"), time.Minute))

		got, ok, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("new"), got)
	})
}
