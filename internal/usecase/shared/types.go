package shared

import (
	"context"
	"fmt"
	"time"

	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
)

const (
	JobBookingCreated       = "booking.created"
	JobBookingStatusChanged = "booking.status_changed"
	JobBookingCancelled     = "booking.cancelled"
)

// Job is a notification handed to the queue sink after a successful write.
type Job struct {
	Type    string
	Key     string
	Payload any
}

type JobQueue interface {
	Enqueue(ctx context.Context, job Job) error
}

// BookingJobPayload is the body of every booking.* job.
type BookingJobPayload struct {
	ReservationID     int64     `json:"reservationId"`
	ConfirmationToken string    `json:"confirmationToken"`
	Status            string    `json:"status"`
	PreviousStatus    string    `json:"previousStatus,omitempty"`
	BookingDate       string    `json:"bookingDate"`
	StartTime         string    `json:"startTime"`
	EndTime           string    `json:"endTime"`
	UserEmail         string    `json:"userEmail"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// LockKeys derives the capacity lock for a pool on date. Pools are disjoint,
// so one key per pool serializes every writer that can touch its sum.
func LockKeys(pool scheduling.Scope, date time.Time) []string {
	d := timerange.FormatDate(date)
	switch {
	case pool.VariationID != nil:
		return []string{fmt.Sprintf("variation:%d:%s", *pool.VariationID, d)}
	case pool.EmployeeID != nil:
		return []string{fmt.Sprintf("employee:%d:%s", *pool.EmployeeID, d)}
	default:
		return []string{"date:" + d}
	}
}
