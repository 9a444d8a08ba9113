package availability

import (
	"errors"
	"slices"
	"time"

	"booking-engine/internal/domain/timerange"
)

var ErrInvalidISOWeekday = errors.New("schedule days must be between 1 and 7")

// Schedule is an employee working-hours definition keyed by ISO weekday (1=Mon..7=Sun).
type Schedule struct {
	id          int64
	title       string
	employeeIDs []int64
	daysOfWeek  []int
	window      timerange.Range
	isActive    bool
}

func NewSchedule(title string, employeeIDs []int64, days []int, window timerange.Range) (*Schedule, error) {
	for _, d := range days {
		if d < 1 || d > 7 {
			return nil, ErrInvalidISOWeekday
		}
	}
	return &Schedule{
		title:       title,
		employeeIDs: append([]int64(nil), employeeIDs...),
		daysOfWeek:  append([]int(nil), days...),
		window:      window,
		isActive:    true,
	}, nil
}

func ReconstructSchedule(id int64, title string, employeeIDs []int64, days []int, window timerange.Range, isActive bool) *Schedule {
	return &Schedule{
		id:          id,
		title:       title,
		employeeIDs: employeeIDs,
		daysOfWeek:  days,
		window:      window,
		isActive:    isActive,
	}
}

func (s *Schedule) WorksOn(date time.Time) bool {
	return s.isActive && slices.Contains(s.daysOfWeek, timerange.ISOWeekday(date))
}

func (s *Schedule) Covers(employeeID int64) bool {
	return slices.Contains(s.employeeIDs, employeeID)
}

// WindowsOn returns the working window on date for any of the given employees.
func (s *Schedule) WindowsOn(date time.Time, employeeIDs ...int64) []timerange.Range {
	if !s.WorksOn(date) || s.window.IsEmpty() {
		return nil
	}
	for _, id := range employeeIDs {
		if s.Covers(id) {
			return []timerange.Range{s.window}
		}
	}
	return nil
}

func (s *Schedule) WithID(id int64) *Schedule {
	s.id = id
	return s
}

func (s *Schedule) ID() int64               { return s.id }
func (s *Schedule) Title() string           { return s.title }
func (s *Schedule) EmployeeIDs() []int64    { return append([]int64(nil), s.employeeIDs...) }
func (s *Schedule) DaysOfWeek() []int       { return append([]int(nil), s.daysOfWeek...) }
func (s *Schedule) Window() timerange.Range { return s.window }
func (s *Schedule) IsActive() bool          { return s.isActive }
