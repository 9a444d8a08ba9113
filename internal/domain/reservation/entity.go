package reservation

import (
	"errors"
	"strings"
	"time"

	"booking-engine/internal/domain/availability"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimeSlot      = errors.New("invalid time slot")
	ErrLeadTimeNotMet       = errors.New("lead time requirement not met")
	ErrReservationCancelled = errors.New("reservation is already cancelled")
	ErrInvalidStatus        = errors.New("invalid reservation status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrCancellationWindow   = errors.New("cancellation window has passed")
)

// Policy carries the booking rules that depend on configuration.
type Policy struct {
	MinimumAdvance     time.Duration
	CancellationWindow time.Duration
	Location           *time.Location
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Scope is the set of catalog references a reservation is booked against.
type Scope struct {
	VariationID *int64
	ServiceID   *int64
	EmployeeID  *int64
	LocationID  *int64
}

type Reservation struct {
	id                int64
	contact           Contact
	slot              Slot
	status            Status
	quantity          int
	scope             Scope
	source            availability.Source
	notes             Note
	confirmationToken string
	notificationSent  bool
	createdAt         time.Time
	updatedAt         time.Time
}

func ReconstructReservation(
	id int64,
	contact Contact,
	slot Slot,
	status Status,
	quantity int,
	scope Scope,
	source availability.Source,
	notes Note,
	confirmationToken string,
	notificationSent bool,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                id,
		contact:           contact,
		slot:              slot,
		status:            status,
		quantity:          quantity,
		scope:             scope,
		source:            source,
		notes:             notes,
		confirmationToken: confirmationToken,
		notificationSent:  notificationSent,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func newConfirmationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (r *Reservation) IsActive() bool {
	return r.status.HoldsCapacity()
}

func (r *Reservation) IsCancelled() bool {
	return r.status == StatusCancelled
}

// CanBeCancelled requires the start to be at least window away from now.
func (r *Reservation) CanBeCancelled(now time.Time, p Policy) bool {
	if r.IsCancelled() {
		return false
	}
	return !now.Add(p.CancellationWindow).After(r.slot.StartAt(p.location()))
}

func (r *Reservation) transition(next Status, now time.Time) error {
	if r.status == StatusCancelled {
		return ErrReservationCancelled
	}
	if !r.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.status = next
	r.updatedAt = now
	return nil
}

func (r *Reservation) Confirm(now time.Time) error {
	return r.transition(StatusConfirmed, now)
}

// Cancel applies the customer cancellation policy.
func (r *Reservation) Cancel(now time.Time, p Policy) error {
	if r.IsCancelled() {
		return ErrReservationCancelled
	}
	if !r.CanBeCancelled(now, p) {
		return ErrCancellationWindow
	}
	return r.transition(StatusCancelled, now)
}

// ForceCancel skips the cancellation window. Used by administrators.
func (r *Reservation) ForceCancel(now time.Time) error {
	return r.transition(StatusCancelled, now)
}

// Reschedule moves the reservation. The new slot must satisfy the lead time.
func (r *Reservation) Reschedule(slot Slot, quantity int, now time.Time, p Policy) error {
	if r.IsCancelled() {
		return ErrReservationCancelled
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if slot.StartAt(p.location()).Before(now.Add(p.MinimumAdvance)) {
		return ErrLeadTimeNotMet
	}
	r.slot = slot
	r.quantity = quantity
	r.updatedAt = now
	return nil
}

func (r *Reservation) StampSource(src availability.Source) {
	r.source = src
}

func (r *Reservation) WithID(id int64) *Reservation {
	r.id = id
	return r
}

func (r *Reservation) ID() int64                   { return r.id }
func (r *Reservation) Contact() Contact            { return r.contact }
func (r *Reservation) Slot() Slot                  { return r.slot }
func (r *Reservation) Status() Status              { return r.status }
func (r *Reservation) Quantity() int               { return r.quantity }
func (r *Reservation) Scope() Scope                { return r.scope }
func (r *Reservation) Source() availability.Source { return r.source }
func (r *Reservation) Notes() Note                 { return r.notes }
func (r *Reservation) ConfirmationToken() string   { return r.confirmationToken }
func (r *Reservation) NotificationSent() bool      { return r.notificationSent }
func (r *Reservation) CreatedAt() time.Time        { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time        { return r.updatedAt }
