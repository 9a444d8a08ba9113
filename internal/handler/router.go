package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"booking-engine/internal/domain/user"
	"booking-engine/internal/handler/api"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Availability *api.AvailabilityHandler
	Booking      *api.BookingHandler
	Admin        *api.AdminHandler
	Auth         *middleware.AuthMiddleware
	Limiter      middleware.Limiter
	Ready        []ReadyCheck
}

type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *slog.Logger, h Handlers) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, cfg, h)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// request id first so the recovery log can carry it
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.CustomRecovery(logger))
	engine.Use(middleware.NewCORSMiddleware(logger, cfg.CORS))
	engine.Use(middleware.ErrorHandler(logger))
}

func setupRoutes(engine *gin.Engine, cfg config.Config, h Handlers) {
	engine.GET("/health", healthCheck)
	engine.GET("/ready", readyCheck(h.Ready))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	bookingLimit := middleware.RateLimit(h.Limiter, "create-booking", cfg.RateLimit)

	apiGroup := engine.Group("/api")
	{
		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/available-slots", Handler: h.Availability.AvailableSlots},
			{Method: http.MethodPost, Path: "/slot-check", Handler: h.Availability.SlotCheck},
			{Method: http.MethodGet, Path: "/availability-calendar", Handler: h.Availability.Calendar},
			{Method: http.MethodPost, Path: "/create-booking", Handler: h.Booking.CreateBooking, Mw: []gin.HandlerFunc{bookingLimit}},
			{Method: http.MethodPost, Path: "/bookings/cancel", Handler: h.Booking.CancelByToken},
			{Method: http.MethodGet, Path: "/bookings/:token", Handler: h.Booking.GetByToken},
		})

		admin := apiGroup.Group("/admin")
		admin.Use(h.Auth.RequireAuth(), h.Auth.RequireRoleAtLeast(user.RoleOperator))
		{
			adminOnly := []gin.HandlerFunc{h.Auth.RequireRoleAtLeast(user.RoleAdmin)}
			addRoutes(admin, []route{
				{Method: http.MethodGet, Path: "/bookings", Handler: h.Admin.ListBookings},
				{Method: http.MethodGet, Path: "/bookings/:id", Handler: h.Admin.GetBooking},
				{Method: http.MethodPost, Path: "/bookings/:id/confirm", Handler: h.Admin.ConfirmBooking},
				{Method: http.MethodPost, Path: "/bookings/:id/cancel", Handler: h.Admin.CancelBooking},
				{Method: http.MethodPut, Path: "/bookings/:id/schedule", Handler: h.Admin.RescheduleBooking},
				{Method: http.MethodDelete, Path: "/bookings/:id", Handler: h.Admin.DeleteBooking, Mw: adminOnly},
				{Method: http.MethodPost, Path: "/blackouts", Handler: h.Admin.CreateBlackout, Mw: adminOnly},
				{Method: http.MethodDelete, Path: "/blackouts/:id", Handler: h.Admin.DeleteBlackout, Mw: adminOnly},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

// @Summary Readiness check
// @Description Check backing stores are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func readyCheck(checks []ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, rc := range checks {
			if err := rc.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"check":  rc.Name,
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
