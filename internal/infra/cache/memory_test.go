//go:build unit

package cache_test

import (
	"context"
	"testing"
	"time"

	"booking-engine/internal/infra/cache"
	"booking-engine/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	t.Run("success: value expires after ttl", func(t *testing.T) {
		c := cache.NewMemoryCache(clk)
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

		got, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), got)

		clk.Add(time.Minute)
		_, ok, err = c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("success: returned bytes are a copy", func(t *testing.T) {
		c := cache.NewMemoryCache(clk)
		require.NoError(t, c.Set(ctx, "k", []byte("abc"), 0))

		got, _, _ := c.Get(ctx, "k")
		got[0] = 'x'
		again, _, _ := c.Get(ctx, "k")
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("success: delete by prefix", func(t *testing.T) {
		c := cache.NewMemoryCache(clk)
		for _, k := range []string{"slots:2024-01-01:a", "slots:2024-01-01:b", "slots:2024-01-02:a"} {
			require.NoError(t, c.Set(ctx, k, []byte("1"), time.Hour))
		}

		require.NoError(t, c.DeletePrefix(ctx, "slots:2024-01-01:"))
		assert.Equal(t, 1, c.Len())
		_, ok, _ := c.Get(ctx, "slots:2024-01-02:a")
		assert.True(t, ok)
	})
}
