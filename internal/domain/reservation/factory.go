package reservation

import (
	"booking-engine/internal/domain/availability"
	"booking-engine/internal/pkg/clock"
)

type Factory struct {
	Clock  clock.Clock
	Policy Policy
}

func NewFactory(clock clock.Clock, policy Policy) *Factory {
	return &Factory{
		Clock:  clock,
		Policy: policy,
	}
}

type NewParams struct {
	Contact  Contact
	Slot     Slot
	Quantity int
	Scope    Scope
	Source   availability.Source
	Notes    Note
}

// CreateReservation builds a pending reservation with a fresh confirmation token.
func (f *Factory) CreateReservation(p NewParams) (*Reservation, error) {
	if p.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	now := f.Clock.Now()
	if p.Slot.StartAt(f.Policy.location()).Before(now.Add(f.Policy.MinimumAdvance)) {
		return nil, ErrLeadTimeNotMet
	}

	return &Reservation{
		contact:           p.Contact,
		slot:              p.Slot,
		status:            StatusPending,
		quantity:          p.Quantity,
		scope:             p.Scope,
		source:            p.Source,
		notes:             p.Notes,
		confirmationToken: newConfirmationToken(),
		createdAt:         now,
		updatedAt:         now,
	}, nil
}
