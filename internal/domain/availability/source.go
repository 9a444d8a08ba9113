package availability

import (
	"errors"
)

type SourceKind string

const (
	SourceEntry   SourceKind = "entry"
	SourceSection SourceKind = "section"
)

var ErrInvalidSourceKind = errors.New("invalid source kind")

func NewSourceKind(s string) (SourceKind, error) {
	switch SourceKind(s) {
	case SourceEntry, SourceSection:
		return SourceKind(s), nil
	default:
		return "", ErrInvalidSourceKind
	}
}

// Source references the content record that owns an availability.
type Source struct {
	Kind   SourceKind
	ID     int64
	Handle string
}

func (s Source) IsZero() bool {
	return s.Kind == "" && s.ID == 0 && s.Handle == ""
}

// SourceFilter narrows availabilities by owner. Zero-valued fields match anything.
type SourceFilter struct {
	Kind   SourceKind
	ID     *int64
	Handle string
}

func (f SourceFilter) IsZero() bool {
	return f.Kind == "" && f.ID == nil && f.Handle == ""
}

func (f SourceFilter) Matches(s Source) bool {
	if f.Kind != "" && f.Kind != s.Kind {
		return false
	}
	if f.ID != nil && *f.ID != s.ID {
		return false
	}
	if f.Handle != "" && f.Handle != s.Handle {
		return false
	}
	return true
}
