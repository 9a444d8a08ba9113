package shared

import (
	"context"
	"time"

	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/scheduling"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// Lock serializes writers on the given capacity keys until the transaction ends.
	Lock(ctx context.Context, keys ...string) error
	Reservations() ReservationRepository
	Blackouts() BlackoutRepository
	Capacity() scheduling.UsageCounter
}

type ReservationRepository interface {
	Create(ctx context.Context, res *reservation.Reservation) (int64, error)
	Update(ctx context.Context, res *reservation.Reservation) error
	Delete(ctx context.Context, id int64) error
	// FindByID locks the row for the rest of the transaction.
	FindByID(ctx context.Context, id int64) (*reservation.Reservation, error)
	FindByToken(ctx context.Context, token string) (*reservation.Reservation, error)
}

type BlackoutRepository interface {
	Create(ctx context.Context, b *blackout.BlackoutDate) (int64, error)
	Delete(ctx context.Context, id int64) (*blackout.BlackoutDate, error)
	ActiveOn(ctx context.Context, date time.Time) ([]*blackout.BlackoutDate, error)
}
