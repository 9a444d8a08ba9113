package scheduling

import (
	"sort"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/timerange"
)

// Window is a candidate time range opened by one stored definition.
type Window struct {
	Range          timerange.Range
	AvailabilityID int64
	ScheduleID     int64
}

type Filter struct {
	EmployeeID  *int64
	VariationID *int64
	Source      availability.SourceFilter
	// StaffIDs are the employees of the requested service. Used when EmployeeID is nil.
	StaffIDs []int64
}

// Mode tells the caller which definitions Resolve will read for a filter.
type Mode int

const (
	ModeContent Mode = iota
	ModeEmployee
	ModeServiceStaff
)

func (f Filter) Mode() Mode {
	switch {
	case f.EmployeeID != nil:
		return ModeEmployee
	case len(f.StaffIDs) > 0:
		return ModeServiceStaff
	default:
		return ModeContent
	}
}

func (f Filter) Employees() []int64 {
	if f.EmployeeID != nil {
		return []int64{*f.EmployeeID}
	}
	return f.StaffIDs
}

type Definitions struct {
	Availabilities []*availability.Availability
	Schedules      []*availability.Schedule
}

// Resolve expands definitions into the windows open on date, ordered by record id then start.
// Windows may overlap.
func Resolve(date time.Time, defs Definitions, f Filter) []Window {
	var out []Window

	switch f.Mode() {
	case ModeEmployee, ModeServiceStaff:
		employees := f.Employees()
		for _, s := range defs.Schedules {
			for _, r := range s.WindowsOn(date, employees...) {
				out = append(out, Window{Range: r, ScheduleID: s.ID()})
			}
		}
	default:
		for _, a := range defs.Availabilities {
			if !f.Source.Matches(a.Source()) || !a.AppliesToVariation(f.VariationID) {
				continue
			}
			for _, r := range a.WindowsOn(date) {
				out = append(out, Window{Range: r, AvailabilityID: a.ID()})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].recordID(), out[j].recordID()
		if ki != kj {
			return ki < kj
		}
		return out[i].Range.Start < out[j].Range.Start
	})
	return out
}

func (w Window) recordID() int64 {
	if w.AvailabilityID != 0 {
		return w.AvailabilityID
	}
	return w.ScheduleID
}

// FirstContaining returns the first availability, by id, whose window on date contains rng.
func FirstContaining(date time.Time, records []*availability.Availability, rng timerange.Range, f Filter) *availability.Availability {
	sorted := append([]*availability.Availability(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	for _, a := range sorted {
		if !f.Source.Matches(a.Source()) || !a.AppliesToVariation(f.VariationID) {
			continue
		}
		for _, w := range a.WindowsOn(date) {
			if w.Contains(rng) {
				return a
			}
		}
	}
	return nil
}
