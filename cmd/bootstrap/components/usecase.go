package components

import (
	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewSettings,
	NewPolicy,
	reservation.NewFactory,
	scheduling.NewLedger,
	func() *scheduling.Generator {
		return scheduling.NewGenerator()
	},
)

func NewSettings(cfg config.Config) queries.Settings {
	b := cfg.Booking
	return queries.Settings{
		MinimumAdvance: b.MinimumAdvance(),
		Location:       b.Location(),
		Defaults: catalog.Defaults{
			SlotDurationMinutes: b.DefaultSlotDurationMinutes,
			MaxCapacity:         b.DefaultMaxCapacity,
		},
		MaxSummaryDays: b.MaxSummaryDays,
		CacheTTL:       cfg.Cache.TTL,
	}
}

func NewPolicy(cfg config.Config) reservation.Policy {
	return reservation.Policy{
		MinimumAdvance:     cfg.Booking.MinimumAdvance(),
		CancellationWindow: cfg.Booking.CancellationWindow(),
		Location:           cfg.Booking.Location(),
	}
}

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		queries.NewReservationQueries,
		queries.NewCacheInvalidator,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
