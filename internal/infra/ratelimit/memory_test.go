//go:build unit

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"booking-engine/internal/infra/ratelimit"
	"booking-engine/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := ratelimit.NewMemoryLimiter(clk, 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "create:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := l.Allow(ctx, "create:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Keys are independent.
	ok, _ = l.Allow(ctx, "create:10.0.0.2")
	assert.True(t, ok)

	clk.Add(time.Minute)
	ok, _ = l.Allow(ctx, "create:10.0.0.1")
	assert.True(t, ok)
}
