package memstore

import (
	"context"
	"sort"
	"time"

	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra"
	"booking-engine/internal/usecase/queries"
)

func (s *Store) FindViewByID(_ context.Context, id int64) (*queries.ReservationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, infra.NotFoundErr("reservation not found")
	}
	return queries.ViewOf(&r), nil
}

func (s *Store) FindViewByToken(_ context.Context, token string) (*queries.ReservationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.ConfirmationToken() == token {
			return queries.ViewOf(&r), nil
		}
	}
	return nil, infra.NotFoundErr("reservation not found")
}

func (s *Store) ListByDate(_ context.Context, date time.Time, afterStart timerange.TimeOfDay, afterID int64, limit int) ([]*queries.ReservationView, error) {
	s.mu.RLock()
	var views []*queries.ReservationView
	for _, r := range s.reservations {
		if timerange.SameDate(r.Slot().Date(), date) {
			views = append(views, queries.ViewOf(&r))
		}
	}
	s.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		if views[i].StartMinute != views[j].StartMinute {
			return views[i].StartMinute < views[j].StartMinute
		}
		return views[i].ID < views[j].ID
	})

	out := make([]*queries.ReservationView, 0, limit)
	for _, v := range views {
		if afterStart >= 0 && (v.StartMinute < afterStart || (v.StartMinute == afterStart && v.ID <= afterID)) {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
