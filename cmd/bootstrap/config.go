package bootstrap

import (
	"log/slog"

	"booking-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
	fx.Invoke(logEffectiveConfig),
)

// logEffectiveConfig records the booking rules and drivers the process starts with.
func logEffectiveConfig(cfg config.Config, logger *slog.Logger) {
	logger.Info("booking engine configured",
		"store", cfg.Booking.Store,
		"timezone", cfg.Booking.TimeZone,
		"min_advance_hours", cfg.Booking.MinimumAdvanceBookingHours,
		"cancellation_hours", cfg.Booking.CancellationPolicyHours,
		"cache_driver", cfg.Cache.Driver,
		"queue_driver", cfg.Queue.Driver,
		"rate_limit_driver", cfg.RateLimit.Driver,
	)
}
