package queries

import (
	"context"
	"time"

	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/errs"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID                int64     `json:"id"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
	UserPhone         string    `json:"userPhone,omitempty"`
	UserTimezone      string    `json:"userTimezone"`
	BookingDate       string    `json:"bookingDate"`
	StartTime         string    `json:"startTime"`
	EndTime           string    `json:"endTime"`
	Status            string    `json:"status"`
	Quantity          int       `json:"quantity"`
	VariationID       *int64    `json:"variationId,omitempty"`
	ServiceID         *int64    `json:"serviceId,omitempty"`
	EmployeeID        *int64    `json:"employeeId,omitempty"`
	LocationID        *int64    `json:"locationId,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	ConfirmationToken string    `json:"confirmationToken"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	// Keyset position, not serialized.
	StartMinute timerange.TimeOfDay `json:"-"`
}

type ReservationPage struct {
	Items []*ReservationView
	Next  *Cursor
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id int64) (*ReservationView, error)
	GetByToken(ctx context.Context, token string) (*ReservationView, error)
	ListByDate(ctx context.Context, date time.Time, after *Cursor, limit int) (*ReservationPage, error)
}

// ReservationViewRepo lists are ordered by (start_time, id).
type ReservationViewRepo interface {
	FindViewByID(ctx context.Context, id int64) (*ReservationView, error)
	FindViewByToken(ctx context.Context, token string) (*ReservationView, error)
	ListByDate(ctx context.Context, date time.Time, afterStart timerange.TimeOfDay, afterID int64, limit int) ([]*ReservationView, error)
}

type reservationQueriesImpl struct {
	repo ReservationViewRepo
}

func NewReservationQueries(repo ReservationViewRepo) ReservationQueries {
	return &reservationQueriesImpl{repo: repo}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id int64) (*ReservationView, error) {
	return q.repo.FindViewByID(ctx, id)
}

func (q *reservationQueriesImpl) GetByToken(ctx context.Context, token string) (*ReservationView, error) {
	if token == "" {
		return nil, errs.Invalid("token", "Confirmation token is required.")
	}
	return q.repo.FindViewByToken(ctx, token)
}

func (q *reservationQueriesImpl) ListByDate(ctx context.Context, date time.Time, after *Cursor, limit int) (*ReservationPage, error) {
	limit = ValidateLimit(limit)

	afterStart, afterID := timerange.TimeOfDay(-1), int64(0)
	if after != nil && after.After != "" {
		start, id, err := DecodeAfterCursor(after.After)
		if err != nil {
			return nil, errs.Invalid("after", err.Error())
		}
		afterStart, afterID = start, id
	}

	// One extra row tells whether another page exists.
	rows, err := q.repo.ListByDate(ctx, timerange.DateOf(date), afterStart, afterID, limit+1)
	if err != nil {
		return nil, err
	}

	page := &ReservationPage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.Next = &Cursor{After: EncodeAfterCursor(last.StartMinute, last.ID)}
	}
	return page, nil
}

func ViewOf(r *reservation.Reservation) *ReservationView {
	c := r.Contact()
	scope := r.Scope()
	rng := r.Slot().Range()
	return &ReservationView{
		ID:                r.ID(),
		UserName:          c.Name(),
		UserEmail:         c.Email(),
		UserPhone:         c.Phone(),
		UserTimezone:      c.Timezone(),
		BookingDate:       timerange.FormatDate(r.Slot().Date()),
		StartTime:         rng.Start.String(),
		EndTime:           rng.End.String(),
		Status:            r.Status().String(),
		Quantity:          r.Quantity(),
		VariationID:       scope.VariationID,
		ServiceID:         scope.ServiceID,
		EmployeeID:        scope.EmployeeID,
		LocationID:        scope.LocationID,
		Notes:             r.Notes().String(),
		ConfirmationToken: r.ConfirmationToken(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
		StartMinute:       rng.Start,
	}
}
