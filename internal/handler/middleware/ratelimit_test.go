//go:build unit

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/infra/ratelimit"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func limitedRouter(l middleware.Limiter, failOpen bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/create-booking", middleware.RateLimit(l, "create-booking", config.RateLimitConfig{Window: time.Minute, FailOpen: failOpen}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestRateLimit(t *testing.T) {
	t.Run("error: requests past the limit get 429", func(t *testing.T) {
		clk := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		r := limitedRouter(ratelimit.NewMemoryLimiter(clk, 2, time.Minute), false)

		for i := 0; i < 2; i++ {
			rec := httptest.PerformRequest(t, r, http.MethodPost, "/create-booking", nil, "")
			assert.Equal(t, http.StatusCreated, rec.Code)
		}
		rec := httptest.PerformRequest(t, r, http.MethodPost, "/create-booking", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusTooManyRequests, "Too many requests")
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))

		clk.Add(time.Minute)
		rec = httptest.PerformRequest(t, r, http.MethodPost, "/create-booking", nil, "")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("success: backend failure passes through when failing open", func(t *testing.T) {
		rec := httptest.PerformRequest(t, limitedRouter(brokenLimiter{}, true), http.MethodPost, "/create-booking", nil, "")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("error: backend failure is 503 when failing closed", func(t *testing.T) {
		rec := httptest.PerformRequest(t, limitedRouter(brokenLimiter{}, false), http.MethodPost, "/create-booking", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusServiceUnavailable, "temporarily unavailable")
	})
}
