package catalog

import (
	"errors"
	"slices"

	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/ptr"
)

var (
	ErrInvalidSlotDuration = errors.New("slot duration must be positive")
	ErrInvalidMaxCapacity  = errors.New("max capacity must be at least 1")
	ErrInvalidBuffer       = errors.New("buffer minutes cannot be negative")
	ErrInvalidDuration     = errors.New("service duration must be positive")
)

// Variation is a bookable product tier with its own capacity and timing overrides.
type Variation struct {
	id                     int64
	title                  string
	description            string
	slotDurationMinutes    *int
	bufferMinutes          *int
	maxCapacity            int
	allowQuantitySelection bool
	isActive               bool
	serviceID              *int64
}

type VariationParams struct {
	Title                  string
	Description            string
	SlotDurationMinutes    *int
	BufferMinutes          *int
	MaxCapacity            int
	AllowQuantitySelection bool
	IsActive               bool
	ServiceID              *int64
}

func NewVariation(id int64, p VariationParams) (*Variation, error) {
	if p.SlotDurationMinutes != nil && *p.SlotDurationMinutes <= 0 {
		return nil, ErrInvalidSlotDuration
	}
	if p.BufferMinutes != nil && *p.BufferMinutes < 0 {
		return nil, ErrInvalidBuffer
	}
	if p.MaxCapacity < 1 {
		return nil, ErrInvalidMaxCapacity
	}
	return &Variation{
		id:                     id,
		title:                  p.Title,
		description:            p.Description,
		slotDurationMinutes:    p.SlotDurationMinutes,
		bufferMinutes:          p.BufferMinutes,
		maxCapacity:            p.MaxCapacity,
		allowQuantitySelection: p.AllowQuantitySelection,
		isActive:               p.IsActive,
		serviceID:              p.ServiceID,
	}, nil
}

func (v *Variation) ID() int64                    { return v.id }
func (v *Variation) Title() string                { return v.title }
func (v *Variation) Description() string          { return v.description }
func (v *Variation) SlotDurationMinutes() *int    { return v.slotDurationMinutes }
func (v *Variation) BufferMinutes() *int          { return v.bufferMinutes }
func (v *Variation) MaxCapacity() int             { return v.maxCapacity }
func (v *Variation) AllowQuantitySelection() bool { return v.allowQuantitySelection }
func (v *Variation) IsActive() bool               { return v.isActive }
func (v *Variation) ServiceID() *int64            { return v.serviceID }

// Service is the bookable offering staffed by employees.
type Service struct {
	id                  int64
	title               string
	durationMinutes     int
	bufferBeforeMinutes int
	bufferAfterMinutes  int
	employeeIDs         []int64
	isActive            bool
}

type ServiceParams struct {
	Title               string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	EmployeeIDs         []int64
	IsActive            bool
}

func NewService(id int64, p ServiceParams) (*Service, error) {
	if p.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if p.BufferBeforeMinutes < 0 || p.BufferAfterMinutes < 0 {
		return nil, ErrInvalidBuffer
	}
	return &Service{
		id:                  id,
		title:               p.Title,
		durationMinutes:     p.DurationMinutes,
		bufferBeforeMinutes: p.BufferBeforeMinutes,
		bufferAfterMinutes:  p.BufferAfterMinutes,
		employeeIDs:         append([]int64(nil), p.EmployeeIDs...),
		isActive:            p.IsActive,
	}, nil
}

func (s *Service) ID() int64                { return s.id }
func (s *Service) Title() string            { return s.title }
func (s *Service) DurationMinutes() int     { return s.durationMinutes }
func (s *Service) BufferBeforeMinutes() int { return s.bufferBeforeMinutes }
func (s *Service) BufferAfterMinutes() int  { return s.bufferAfterMinutes }
func (s *Service) EmployeeIDs() []int64     { return append([]int64(nil), s.employeeIDs...) }
func (s *Service) IsActive() bool           { return s.isActive }

func (s *Service) Employs(employeeID int64) bool {
	return slices.Contains(s.employeeIDs, employeeID)
}

// SlotSpec is the timing and capacity used to discretize windows.
type SlotSpec struct {
	DurationMinutes int
	BufferBefore    int
	BufferAfter     int
	MaxCapacity     int
}

// Occupied is r plus its dead time.
func (s SlotSpec) Occupied(r timerange.Range) timerange.Range {
	return r.Expand(s.BufferBefore, s.BufferAfter)
}

// ContentionWindow is the range a stored booking's raw times must overlap for
// its occupied range to overlap the occupied range of r. Both sides carry
// the same buffers, so the window is r padded by both buffers on each end.
func (s SlotSpec) ContentionWindow(r timerange.Range) timerange.Range {
	pad := s.BufferBefore + s.BufferAfter
	return r.Expand(pad, pad)
}

type Defaults struct {
	SlotDurationMinutes int
	MaxCapacity         int
}

// ResolveSlotSpec picks duration from variation, then service, then defaults.
// The variation buffer replaces the service after-buffer.
func ResolveSlotSpec(v *Variation, s *Service, d Defaults) (SlotSpec, error) {
	var (
		varDuration, varBuffer *int
		svcDuration            *int
		spec                   = SlotSpec{MaxCapacity: d.MaxCapacity}
	)
	if s != nil {
		svcDuration = &s.durationMinutes
		spec.BufferBefore = s.bufferBeforeMinutes
		spec.BufferAfter = s.bufferAfterMinutes
	}
	if v != nil {
		varDuration = v.slotDurationMinutes
		varBuffer = v.bufferMinutes
		spec.MaxCapacity = v.maxCapacity
	}

	spec.DurationMinutes = ptr.Or(varDuration, ptr.Or(svcDuration, d.SlotDurationMinutes))
	spec.BufferAfter = ptr.Or(varBuffer, spec.BufferAfter)

	if spec.DurationMinutes <= 0 {
		return SlotSpec{}, ErrInvalidSlotDuration
	}
	if spec.MaxCapacity < 1 {
		return SlotSpec{}, ErrInvalidMaxCapacity
	}
	return spec, nil
}
