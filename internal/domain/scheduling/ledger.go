package scheduling

import (
	"context"
	"time"

	"booking-engine/internal/domain/timerange"
)

// Scope names one capacity pool. EmployeeID only counts when VariationID is nil.
type Scope struct {
	VariationID *int64
	EmployeeID  *int64
}

// PoolOf returns the pool a booking draws from. A variation pool spans every
// employee; without a variation the employee owns the pool, and with neither
// the date is one shared pool. Every reservation sits in exactly one pool.
func PoolOf(variationID, employeeID *int64) Scope {
	if variationID != nil {
		return Scope{VariationID: variationID}
	}
	return Scope{EmployeeID: employeeID}
}

type UsageQuery struct {
	Scope     Scope
	Date      time.Time
	Window    timerange.Range
	ExcludeID *int64
}

// UsageCounter sums quantity of pending and confirmed reservations in scope on
// the date whose range overlaps the window.
type UsageCounter interface {
	SumOverlappingQuantity(ctx context.Context, q UsageQuery) (int, error)
}

type Ledger struct {
	counter UsageCounter
}

func NewLedger(counter UsageCounter) *Ledger {
	return &Ledger{counter: counter}
}

// Remaining is max(0, maxCapacity - used).
func (l *Ledger) Remaining(ctx context.Context, maxCapacity int, q UsageQuery) (int, error) {
	used, err := l.counter.SumOverlappingQuantity(ctx, q)
	if err != nil {
		return 0, err
	}
	return RemainingOf(maxCapacity, used), nil
}

func RemainingOf(maxCapacity, used int) int {
	if left := maxCapacity - used; left > 0 {
		return left
	}
	return 0
}

// CapacityFor binds pool and date so the generator can query contention windows.
func (l *Ledger) CapacityFor(scope Scope, date time.Time, maxCapacity int, excludeID *int64) CapacityFunc {
	return func(ctx context.Context, window timerange.Range) (int, error) {
		return l.Remaining(ctx, maxCapacity, UsageQuery{
			Scope:     scope,
			Date:      date,
			Window:    window,
			ExcludeID: excludeID,
		})
	}
}
