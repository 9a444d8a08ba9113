package components

import (
	"booking-engine/internal/handler"
	"booking-engine/internal/handler/api"
	"booking-engine/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAvailabilityHandler,
		api.NewBookingHandler,
		api.NewAdminHandler,
		middleware.NewAuthMiddleware,
		NewHandlers,
	),
	fx.Invoke(handler.NewRouter),
)

type HandlerParams struct {
	fx.In

	Availability *api.AvailabilityHandler
	Booking      *api.BookingHandler
	Admin        *api.AdminHandler
	Auth         *middleware.AuthMiddleware
	Limiter      middleware.Limiter
	Ready        []handler.ReadyCheck `group:"ready"`
}

func NewHandlers(p HandlerParams) handler.Handlers {
	return handler.Handlers{
		Availability: p.Availability,
		Booking:      p.Booking,
		Admin:        p.Admin,
		Auth:         p.Auth,
		Limiter:      p.Limiter,
		Ready:        p.Ready,
	}
}
