package blackout

import (
	"errors"
	"slices"
	"time"

	"booking-engine/internal/domain/timerange"
)

var (
	ErrInvalidDateRange = errors.New("blackout end date must not be before start date")
	ErrMissingTitle     = errors.New("title is required")
)

// BlackoutDate blocks every booking on the dates [startDate, endDate] within its scope.
type BlackoutDate struct {
	id          int64
	title       string
	startDate   time.Time
	endDate     time.Time
	isActive    bool
	locationIDs []int64
	employeeIDs []int64
}

func New(title string, startDate, endDate time.Time, locationIDs, employeeIDs []int64) (*BlackoutDate, error) {
	if title == "" {
		return nil, ErrMissingTitle
	}
	start, end := timerange.DateOf(startDate), timerange.DateOf(endDate)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	return &BlackoutDate{
		title:       title,
		startDate:   start,
		endDate:     end,
		isActive:    true,
		locationIDs: append([]int64(nil), locationIDs...),
		employeeIDs: append([]int64(nil), employeeIDs...),
	}, nil
}

func Reconstruct(id int64, title string, startDate, endDate time.Time, isActive bool, locationIDs, employeeIDs []int64) *BlackoutDate {
	return &BlackoutDate{
		id:          id,
		title:       title,
		startDate:   timerange.DateOf(startDate),
		endDate:     timerange.DateOf(endDate),
		isActive:    isActive,
		locationIDs: locationIDs,
		employeeIDs: employeeIDs,
	}
}

// Covers reports whether date falls inside the inclusive date range.
func (b *BlackoutDate) Covers(date time.Time) bool {
	d := timerange.DateOf(date)
	return !d.Before(b.startDate) && !d.After(b.endDate)
}

// Applies evaluates the scoping policy for a request. A nil id means the request did not name one.
//
//	no locations, no employees: global
//	locations only:             location in set, or omitted
//	employees only:             employee in set, or omitted
//	both:                       both of the above
func (b *BlackoutDate) Applies(date time.Time, locationID, employeeID *int64) bool {
	if !b.isActive || !b.Covers(date) {
		return false
	}
	return matchesScope(b.locationIDs, locationID) && matchesScope(b.employeeIDs, employeeID)
}

func matchesScope(set []int64, id *int64) bool {
	if len(set) == 0 || id == nil {
		return true
	}
	return slices.Contains(set, *id)
}

// AnyApplies OR-combines Applies over list.
func AnyApplies(list []*BlackoutDate, date time.Time, locationID, employeeID *int64) bool {
	for _, b := range list {
		if b.Applies(date, locationID, employeeID) {
			return true
		}
	}
	return false
}

// Dates enumerates every calendar date the blackout covers.
func (b *BlackoutDate) Dates() []time.Time {
	var out []time.Time
	for d := b.startDate; !d.After(b.endDate); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (b *BlackoutDate) WithID(id int64) *BlackoutDate {
	b.id = id
	return b
}

func (b *BlackoutDate) ID() int64            { return b.id }
func (b *BlackoutDate) Title() string        { return b.title }
func (b *BlackoutDate) StartDate() time.Time { return b.startDate }
func (b *BlackoutDate) EndDate() time.Time   { return b.endDate }
func (b *BlackoutDate) IsActive() bool       { return b.isActive }
func (b *BlackoutDate) LocationIDs() []int64 { return append([]int64(nil), b.locationIDs...) }
func (b *BlackoutDate) EmployeeIDs() []int64 { return append([]int64(nil), b.employeeIDs...) }
