package timerange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	MinutesPerDay = 24 * 60
)

var (
	ErrInvalidTime = errors.New("invalid time of day")
	ErrInvalidDate = errors.New("invalid date")
)

// TimeOfDay is a wall-clock time as minutes since midnight. 1440 is end of day.
type TimeOfDay int

// ParseTimeOfDay accepts "9:00", "09:00" and "09:00:00". Seconds are truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	h, err := parseBounded(parts[0], 0, 24)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := parseBounded(parts[1], 0, 59)
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	sec := 0
	if len(parts) == 3 {
		if sec, err = parseBounded(parts[2], 0, 59); err != nil || len(parts[2]) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}
	if h == 24 && (m != 0 || sec != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	return TimeOfDay(h*60 + m), nil
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseBounded(s string, lo, hi int) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, ErrInvalidTime
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, ErrInvalidTime
	}
	return n, nil
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// TimeOfDayOf returns the wall-clock time of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// String renders HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Range is a half-open interval [Start, End) on a single day.
type Range struct {
	Start TimeOfDay
	End   TimeOfDay
}

func New(start, end TimeOfDay) Range {
	return Range{Start: start, End: end}
}

func Parse(start, end string) (Range, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// Overlaps reports whether r and o share any instant. Touching ranges do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && r.End > o.Start
}

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return !o.IsEmpty() && r.Start <= o.Start && o.End <= r.End
}

func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

func (r Range) DurationMinutes() int {
	if r.IsEmpty() {
		return 0
	}
	return int(r.End - r.Start)
}

// Expand widens the range by before/after minutes. The result may extend past midnight.
func (r Range) Expand(before, after int) Range {
	return Range{Start: r.Start - TimeOfDay(before), End: r.End + TimeOfDay(after)}
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

func MustParseDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf truncates t to its calendar date, keeping the wall-clock day of t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// At combines a calendar date and a wall-clock time in loc.
func At(date time.Time, t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc).
		Add(time.Duration(t) * time.Minute)
}

// ISOWeekday maps Monday=1 .. Sunday=7.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
