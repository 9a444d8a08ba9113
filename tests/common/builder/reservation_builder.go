//go:build unit || e2e

package builder

import (
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/timerange"
	reqdto "booking-engine/internal/handler/dto/request"
	"booking-engine/internal/usecase/queries"
)

type ReservationBuilder struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	Timezone    string
	Date        string
	Start       string
	End         string
	Quantity    int
	Status      reservation.Status
	VariationID *int64
	ServiceID   *int64
	EmployeeID  *int64
	LocationID  *int64
	Source      availability.Source
	Notes       string
	Token       string
	CreatedAt   time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		ID:        1,
		Name:      "Test User",
		Email:     "test@example.com",
		Timezone:  "UTC",
		Date:      "2024-01-01",
		Start:     "10:00",
		End:       "10:30",
		Quantity:  1,
		Status:    reservation.StatusConfirmed,
		Token:     "token-1",
		CreatedAt: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithVariation(id int64) *ReservationBuilder {
	b.VariationID = &id
	return b
}

func (b *ReservationBuilder) WithEmployee(id int64) *ReservationBuilder {
	b.EmployeeID = &id
	return b
}

func (b *ReservationBuilder) WithTime(start, end string) *ReservationBuilder {
	b.Start, b.End = start, end
	return b
}

func (b *ReservationBuilder) WithStatus(s reservation.Status) *ReservationBuilder {
	b.Status = s
	return b
}

func (b *ReservationBuilder) slot() (reservation.Slot, error) {
	date, err := timerange.ParseDate(b.Date)
	if err != nil {
		return reservation.Slot{}, err
	}
	rng, err := timerange.Parse(b.Start, b.End)
	if err != nil {
		return reservation.Slot{}, err
	}
	return reservation.NewSlot(date, rng)
}

func (b *ReservationBuilder) scope() reservation.Scope {
	return reservation.Scope{
		VariationID: b.VariationID,
		ServiceID:   b.ServiceID,
		EmployeeID:  b.EmployeeID,
		LocationID:  b.LocationID,
	}
}

// BuildDomain goes through the factory, so lead time and quantity rules apply.
func (b *ReservationBuilder) BuildDomain(f *reservation.Factory) (*reservation.Reservation, error) {
	contact, err := reservation.NewContact(b.Name, b.Email, b.Phone, b.Timezone)
	if err != nil {
		return nil, err
	}
	slot, err := b.slot()
	if err != nil {
		return nil, err
	}
	return f.CreateReservation(reservation.NewParams{
		Contact:  contact,
		Slot:     slot,
		Quantity: b.Quantity,
		Scope:    b.scope(),
		Source:   b.Source,
		Notes:    reservation.NewNote(b.Notes),
	})
}

// BuildStored returns a reservation as if loaded from storage. Panics on invalid builder input.
func (b *ReservationBuilder) BuildStored() *reservation.Reservation {
	contact, err := reservation.NewContact(b.Name, b.Email, b.Phone, b.Timezone)
	if err != nil {
		panic(err)
	}
	slot, err := b.slot()
	if err != nil {
		panic(err)
	}
	return reservation.ReconstructReservation(
		b.ID, contact, slot, b.Status, b.Quantity, b.scope(), b.Source,
		reservation.NewNote(b.Notes), b.Token, false, b.CreatedAt, b.CreatedAt,
	)
}

func (b *ReservationBuilder) BuildView() *queries.ReservationView {
	return queries.ViewOf(b.BuildStored())
}

func (b *ReservationBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	qty := b.Quantity
	return reqdto.CreateBookingRequest{
		UserName:     b.Name,
		UserEmail:    b.Email,
		UserPhone:    b.Phone,
		UserTimezone: b.Timezone,
		BookingDate:  b.Date,
		StartTime:    b.Start,
		EndTime:      b.End,
		Quantity:     &qty,
		VariationID:  b.VariationID,
		ServiceID:    b.ServiceID,
		EmployeeID:   b.EmployeeID,
		LocationID:   b.LocationID,
		Notes:        b.Notes,
	}
}
