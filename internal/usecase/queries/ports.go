package queries

import (
	"context"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/catalog"
)

type DefinitionReader interface {
	// AvailabilitiesOn returns active recurring records for the weekday of date
	// and active event records with an event date on date.
	AvailabilitiesOn(ctx context.Context, date time.Time, source availability.SourceFilter) ([]*availability.Availability, error)
	// SchedulesOn returns active schedules for the ISO weekday of date covering any of the employees.
	SchedulesOn(ctx context.Context, date time.Time, employeeIDs []int64) ([]*availability.Schedule, error)
}

type BlackoutReader interface {
	ActiveOn(ctx context.Context, date time.Time) ([]*blackout.BlackoutDate, error)
	ActiveBetween(ctx context.Context, start, end time.Time) ([]*blackout.BlackoutDate, error)
}

type CatalogReader interface {
	VariationByID(ctx context.Context, id int64) (*catalog.Variation, error)
	ServiceByID(ctx context.Context, id int64) (*catalog.Service, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Settings is the configuration the engine reads. Built from config.BookingConfig.
type Settings struct {
	MinimumAdvance time.Duration
	Location       *time.Location
	Defaults       catalog.Defaults
	MaxSummaryDays int
	CacheTTL       time.Duration
}
