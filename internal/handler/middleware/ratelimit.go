package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

const retryAfterHeader = "Retry-After"

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit throttles by client IP. When the backend errors, cfg.FailOpen
// decides whether the request proceeds.
func RateLimit(limiter Limiter, scope string, cfg config.RateLimitConfig) gin.HandlerFunc {
	retryAfter := strconv.Itoa(max(1, int(cfg.Window.Seconds())))

	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "scope", scope, "error", err)
			if cfg.FailOpen {
				c.Next()
				return
			}
			httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Service temporarily unavailable", nil)
			return
		}
		if !ok {
			c.Header(retryAfterHeader, retryAfter)
			httperr.Abort(c, errs.Mark(errs.New("rate limit exceeded for "+scope), errs.ErrRateLimited))
			return
		}
		c.Next()
	}
}
