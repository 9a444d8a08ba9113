package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/timerange"
)

var ErrInvalidSlotDuration = errors.New("slot duration must be positive")

// Slot is a bookable range with the capacity still free for its occupied range.
type Slot struct {
	Range             timerange.Range
	RemainingCapacity int
	AvailabilityID    int64
}

// Candidate is a slot under consideration, before capacity is checked.
type Candidate struct {
	Date     time.Time
	Range    timerange.Range
	Occupied timerange.Range
	Window   Window
}

// SlotFilter lets callers veto candidates. Filters run after lead time and blackout checks.
type SlotFilter interface {
	Allow(ctx context.Context, c Candidate) bool
}

type SlotFilterFunc func(ctx context.Context, c Candidate) bool

func (f SlotFilterFunc) Allow(ctx context.Context, c Candidate) bool { return f(ctx, c) }

// CapacityFunc returns remaining capacity for bookings whose raw range overlaps window.
type CapacityFunc func(ctx context.Context, window timerange.Range) (int, error)

type Request struct {
	Date           time.Time
	Windows        []Window
	Spec           catalog.SlotSpec
	Quantity       int
	Now            time.Time
	MinimumAdvance time.Duration
	Location       *time.Location
	// Blocked is set when any blackout applies to the date.
	Blocked bool
}

type Generator struct {
	filters []SlotFilter
}

func NewGenerator(filters ...SlotFilter) *Generator {
	return &Generator{filters: filters}
}

// Generate discretizes windows into slots sorted by start. Duplicate ranges
// keep the highest remaining capacity.
func (g *Generator) Generate(ctx context.Context, req Request, capacity CapacityFunc) ([]Slot, error) {
	d := req.Spec.DurationMinutes
	if d <= 0 {
		return nil, ErrInvalidSlotDuration
	}
	if req.Blocked {
		return []Slot{}, nil
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	earliest := req.Now.Add(req.MinimumAdvance)

	best := make(map[timerange.Range]Slot)
	checked := make(map[timerange.Range]int)

	for _, w := range req.Windows {
		for t := w.Range.Start; t.Add(d) <= w.Range.End; t = t.Add(d) {
			rng := timerange.New(t, t.Add(d))
			if timerange.At(req.Date, t, loc).Before(earliest) {
				continue
			}

			c := Candidate{
				Date:     req.Date,
				Range:    rng,
				Occupied: req.Spec.Occupied(rng),
				Window:   w,
			}
			if !g.allow(ctx, c) {
				continue
			}

			contended := req.Spec.ContentionWindow(rng)
			remaining, ok := checked[contended]
			if !ok {
				var err error
				if remaining, err = capacity(ctx, contended); err != nil {
					return nil, err
				}
				checked[contended] = remaining
			}
			if remaining < qty {
				continue
			}

			if prev, seen := best[rng]; !seen || remaining > prev.RemainingCapacity {
				best[rng] = Slot{Range: rng, RemainingCapacity: remaining, AvailabilityID: w.AvailabilityID}
			}
		}
	}

	out := make([]Slot, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start != out[j].Range.Start {
			return out[i].Range.Start < out[j].Range.Start
		}
		return out[i].Range.End < out[j].Range.End
	})
	return out, nil
}

func (g *Generator) allow(ctx context.Context, c Candidate) bool {
	for _, f := range g.filters {
		if !f.Allow(ctx, c) {
			return false
		}
	}
	return true
}
