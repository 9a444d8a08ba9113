package middleware

import (
	"log/slog"
	"slices"

	"booking-engine/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewCORSMiddleware lets browser widgets read the request id and rate limit
// headers in addition to what the config exposes.
func NewCORSMiddleware(logger *slog.Logger, cfg config.CORSConfig) gin.HandlerFunc {
	expose := slices.Clone(cfg.ExposeHeaders)
	for _, h := range []string{RequestIDHeader, retryAfterHeader} {
		if !slices.Contains(expose, h) {
			expose = append(expose, h)
		}
	}

	logger.Info("CORS middleware initialized", "allow_origins", cfg.AllowOrigins, "expose_headers", expose)
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    expose,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
