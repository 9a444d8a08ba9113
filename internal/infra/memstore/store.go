package memstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra"
)

// Store keeps every record in process memory. It serves the read ports and the
// unit of work with the same semantics as the Postgres implementation.
type Store struct {
	mu sync.RWMutex

	availabilities map[int64]*availability.Availability
	schedules      map[int64]*availability.Schedule
	blackouts      map[int64]*blackout.BlackoutDate
	variations     map[int64]*catalog.Variation
	services       map[int64]*catalog.Service
	reservations   map[int64]reservation.Reservation

	nextID atomic.Int64
	locks  *keyedMutex
}

func New() *Store {
	return &Store{
		availabilities: map[int64]*availability.Availability{},
		schedules:      map[int64]*availability.Schedule{},
		blackouts:      map[int64]*blackout.BlackoutDate{},
		variations:     map[int64]*catalog.Variation{},
		services:       map[int64]*catalog.Service{},
		reservations:   map[int64]reservation.Reservation{},
		locks:          newKeyedMutex(),
	}
}

func (s *Store) allocID() int64 {
	return s.nextID.Add(1)
}

// Seeding helpers. A zero id is replaced with a generated one.

func (s *Store) AddAvailability(a *availability.Availability) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID() == 0 {
		a.WithID(s.allocID())
	}
	s.availabilities[a.ID()] = a
	return a.ID()
}

func (s *Store) AddSchedule(sc *availability.Schedule) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ID() == 0 {
		sc.WithID(s.allocID())
	}
	s.schedules[sc.ID()] = sc
	return sc.ID()
}

func (s *Store) AddBlackout(b *blackout.BlackoutDate) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID() == 0 {
		b.WithID(s.allocID())
	}
	s.blackouts[b.ID()] = b
	return b.ID()
}

func (s *Store) AddVariation(v *catalog.Variation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variations[v.ID()] = v
}

func (s *Store) AddService(svc *catalog.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID()] = svc
}

func (s *Store) AddReservation(r *reservation.Reservation) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID() == 0 {
		r.WithID(s.allocID())
	}
	s.reservations[r.ID()] = *r
	return r.ID()
}

// Reservations returns a snapshot of stored reservations ordered by id.
func (s *Store) Reservations() []*reservation.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*reservation.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		cp := r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (s *Store) AvailabilitiesOn(_ context.Context, date time.Time, source availability.SourceFilter) ([]*availability.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*availability.Availability
	for _, a := range s.availabilities {
		if !a.IsActive() || !source.Matches(a.Source()) {
			continue
		}
		if len(a.WindowsOn(date)) == 0 {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *Store) SchedulesOn(_ context.Context, date time.Time, employeeIDs []int64) ([]*availability.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*availability.Schedule
	for _, sc := range s.schedules {
		if len(sc.WindowsOn(date, employeeIDs...)) == 0 {
			continue
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *Store) ActiveOn(ctx context.Context, date time.Time) ([]*blackout.BlackoutDate, error) {
	return s.ActiveBetween(ctx, date, date)
}

func (s *Store) ActiveBetween(_ context.Context, start, end time.Time) ([]*blackout.BlackoutDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeBetweenLocked(start, end), nil
}

func (s *Store) activeBetweenLocked(start, end time.Time) []*blackout.BlackoutDate {
	start, end = timerange.DateOf(start), timerange.DateOf(end)
	var out []*blackout.BlackoutDate
	for _, b := range s.blackouts {
		if !b.IsActive() || b.EndDate().Before(start) || b.StartDate().After(end) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (s *Store) VariationByID(_ context.Context, id int64) (*catalog.Variation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variations[id]
	if !ok {
		return nil, infra.NotFoundErr("variation not found")
	}
	return v, nil
}

func (s *Store) ServiceByID(_ context.Context, id int64) (*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, infra.NotFoundErr("service not found")
	}
	return svc, nil
}

func (s *Store) SumOverlappingQuantity(_ context.Context, q scheduling.UsageQuery) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sumLocked(q), nil
}

func (s *Store) sumLocked(q scheduling.UsageQuery) int {
	sum := 0
	for id, r := range s.reservations {
		if q.ExcludeID != nil && *q.ExcludeID == id {
			continue
		}
		if !r.Status().HoldsCapacity() || !timerange.SameDate(r.Slot().Date(), q.Date) {
			continue
		}
		if !inPool(r.Scope(), q.Scope) {
			continue
		}
		if r.Slot().Range().Overlaps(q.Window) {
			sum += r.Quantity()
		}
	}
	return sum
}

func inPool(have reservation.Scope, pool scheduling.Scope) bool {
	if !sameID(have.VariationID, pool.VariationID) {
		return false
	}
	return pool.VariationID != nil || sameID(have.EmployeeID, pool.EmployeeID)
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
