package reservation

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"booking-engine/internal/domain/timerange"
)

var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrMissingName     = errors.New("name is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// Slot is a booked time range on a calendar date.
type Slot struct {
	date time.Time
	rng  timerange.Range
}

func NewSlot(date time.Time, rng timerange.Range) (Slot, error) {
	if rng.IsEmpty() {
		return Slot{}, ErrInvalidTimeSlot
	}
	return Slot{date: timerange.DateOf(date), rng: rng}, nil
}

func (s Slot) Date() time.Time        { return s.date }
func (s Slot) Range() timerange.Range { return s.rng }

func (s Slot) StartAt(loc *time.Location) time.Time {
	return timerange.At(s.date, s.rng.Start, loc)
}

func (s Slot) EndAt(loc *time.Location) time.Time {
	return timerange.At(s.date, s.rng.End, loc)
}

// Contact is the customer the reservation is made for.
type Contact struct {
	name     string
	email    string
	phone    string
	timezone string
}

func NewContact(name, email, phone, timezone string) (Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Contact{}, ErrMissingName
	}
	email = strings.TrimSpace(email)
	if !IsValidEmail(email) {
		return Contact{}, ErrInvalidEmail
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return Contact{name: name, email: email, phone: strings.TrimSpace(phone), timezone: timezone}, nil
}

// ReconstructContact restores a stored contact without re-validating it.
func ReconstructContact(name, email, phone, timezone string) Contact {
	return Contact{name: name, email: email, phone: phone, timezone: timezone}
}

func (c Contact) Name() string     { return c.name }
func (c Contact) Email() string    { return c.email }
func (c Contact) Phone() string    { return c.phone }
func (c Contact) Timezone() string { return c.timezone }

type Note struct {
	value string
}

func NewNote(value string) Note {
	return Note{value: value}
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
