package availability

import (
	"errors"
	"slices"
	"time"

	"booking-engine/internal/domain/timerange"
)

type Kind string

const (
	KindRecurring Kind = "recurring"
	KindEvent     Kind = "event"
)

var (
	ErrInvalidKind      = errors.New("invalid availability kind")
	ErrInvalidDayOfWeek = errors.New("day of week must be between 0 and 6")
	ErrMissingTitle     = errors.New("title is required")
)

func NewKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRecurring, KindEvent:
		return Kind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

type EventDate struct {
	Date  time.Time
	Range timerange.Range
}

// Availability is a bookable window definition, either repeating weekly or tied to event dates.
type Availability struct {
	id           int64
	title        string
	isActive     bool
	kind         Kind
	dayOfWeek    time.Weekday
	window       timerange.Range
	eventDates   []EventDate
	source       Source
	variationIDs map[int64]struct{}
}

func NewRecurring(title string, day time.Weekday, window timerange.Range, source Source, variationIDs []int64) (*Availability, error) {
	if title == "" {
		return nil, ErrMissingTitle
	}
	if day < time.Sunday || day > time.Saturday {
		return nil, ErrInvalidDayOfWeek
	}
	return &Availability{
		title:        title,
		isActive:     true,
		kind:         KindRecurring,
		dayOfWeek:    day,
		window:       window,
		source:       source,
		variationIDs: toSet(variationIDs),
	}, nil
}

func NewEvent(title string, dates []EventDate, source Source, variationIDs []int64) (*Availability, error) {
	if title == "" {
		return nil, ErrMissingTitle
	}
	return &Availability{
		title:        title,
		isActive:     true,
		kind:         KindEvent,
		eventDates:   append([]EventDate(nil), dates...),
		source:       source,
		variationIDs: toSet(variationIDs),
	}, nil
}

func Reconstruct(
	id int64,
	title string,
	isActive bool,
	kind Kind,
	day time.Weekday,
	window timerange.Range,
	eventDates []EventDate,
	source Source,
	variationIDs []int64,
) *Availability {
	return &Availability{
		id:           id,
		title:        title,
		isActive:     isActive,
		kind:         kind,
		dayOfWeek:    day,
		window:       window,
		eventDates:   eventDates,
		source:       source,
		variationIDs: toSet(variationIDs),
	}
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// WindowsOn returns the windows this record opens on date. Empty windows are dropped.
func (a *Availability) WindowsOn(date time.Time) []timerange.Range {
	if !a.isActive {
		return nil
	}

	switch a.kind {
	case KindRecurring:
		if date.Weekday() != a.dayOfWeek || a.window.IsEmpty() {
			return nil
		}
		return []timerange.Range{a.window}
	case KindEvent:
		var out []timerange.Range
		for _, ed := range a.eventDates {
			if timerange.SameDate(ed.Date, date) && !ed.Range.IsEmpty() {
				out = append(out, ed.Range)
			}
		}
		return out
	default:
		return nil
	}
}

// AppliesToVariation reports whether the record serves the variation. No variations means all.
func (a *Availability) AppliesToVariation(variationID *int64) bool {
	if variationID == nil || len(a.variationIDs) == 0 {
		return true
	}
	_, ok := a.variationIDs[*variationID]
	return ok
}

func (a *Availability) WithID(id int64) *Availability {
	a.id = id
	return a
}

func (a *Availability) ID() int64               { return a.id }
func (a *Availability) Title() string           { return a.title }
func (a *Availability) IsActive() bool          { return a.isActive }
func (a *Availability) Kind() Kind              { return a.kind }
func (a *Availability) DayOfWeek() time.Weekday { return a.dayOfWeek }
func (a *Availability) Window() timerange.Range { return a.window }
func (a *Availability) Source() Source          { return a.source }

func (a *Availability) EventDates() []EventDate {
	return append([]EventDate(nil), a.eventDates...)
}

func (a *Availability) VariationIDs() []int64 {
	out := make([]int64, 0, len(a.variationIDs))
	for id := range a.variationIDs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
