package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/infra"
	"booking-engine/internal/usecase/shared"
)

// keyedMutex hands out one single-slot semaphore per key so acquisition can
// respect context cancellation.
type keyedMutex struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{slots: map[string]chan struct{}{}}
}

func (k *keyedMutex) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		k.slots[key] = s
	}
	return s
}

func (k *keyedMutex) acquire(ctx context.Context, key string) error {
	select {
	case k.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return infra.RepositoryError{Kind: infra.KindLockTimeout}
	}
}

func (k *keyedMutex) release(key string) {
	<-k.slot(key)
}

type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Within runs fn against a buffered transaction. Writes become visible only
// when fn returns nil; locks are released after the commit.
func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := &memTx{
		store:        u.store,
		held:         map[string]bool{},
		reservations: map[int64]*reservation.Reservation{},
		blackouts:    map[int64]*blackout.BlackoutDate{},
		deletedRes:   map[int64]bool{},
		deletedBlk:   map[int64]bool{},
	}
	defer tx.releaseAll()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	store *Store
	held  map[string]bool
	order []string

	reservations map[int64]*reservation.Reservation
	blackouts    map[int64]*blackout.BlackoutDate
	deletedRes   map[int64]bool
	deletedBlk   map[int64]bool
}

func (t *memTx) Lock(ctx context.Context, keys ...string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, key := range sorted {
		if t.held[key] {
			continue
		}
		if err := t.store.locks.acquire(ctx, key); err != nil {
			return err
		}
		t.held[key] = true
		t.order = append(t.order, key)
	}
	return nil
}

func (t *memTx) releaseAll() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range t.reservations {
		s.reservations[id] = *r
	}
	for id := range t.deletedRes {
		delete(s.reservations, id)
	}
	for id, b := range t.blackouts {
		s.blackouts[id] = b
	}
	for id := range t.deletedBlk {
		delete(s.blackouts, id)
	}
}

func (t *memTx) Reservations() shared.ReservationRepository { return (*memReservations)(t) }
func (t *memTx) Blackouts() shared.BlackoutRepository      { return (*memBlackouts)(t) }
func (t *memTx) Capacity() scheduling.UsageCounter          { return (*memCapacity)(t) }

type memReservations memTx

func (r *memReservations) Create(_ context.Context, res *reservation.Reservation) (int64, error) {
	id := r.store.allocID()
	cp := *res
	cp.WithID(id)
	r.reservations[id] = &cp
	return id, nil
}

func (r *memReservations) Update(_ context.Context, res *reservation.Reservation) error {
	if _, err := r.find(res.ID()); err != nil {
		return err
	}
	cp := *res
	r.reservations[res.ID()] = &cp
	return nil
}

func (r *memReservations) Delete(_ context.Context, id int64) error {
	if _, err := r.find(id); err != nil {
		return err
	}
	delete(r.reservations, id)
	r.deletedRes[id] = true
	return nil
}

func (r *memReservations) FindByID(_ context.Context, id int64) (*reservation.Reservation, error) {
	return r.find(id)
}

func (r *memReservations) find(id int64) (*reservation.Reservation, error) {
	if r.deletedRes[id] {
		return nil, infra.NotFoundErr("reservation not found")
	}
	if pending, ok := r.reservations[id]; ok {
		cp := *pending
		return &cp, nil
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	stored, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.NotFoundErr("reservation not found")
	}
	return &stored, nil
}

func (r *memReservations) FindByToken(_ context.Context, token string) (*reservation.Reservation, error) {
	for _, pending := range r.reservations {
		if pending.ConfirmationToken() == token {
			cp := *pending
			return &cp, nil
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for id, stored := range r.store.reservations {
		if stored.ConfirmationToken() == token && !r.deletedRes[id] {
			cp := stored
			return &cp, nil
		}
	}
	return nil, infra.NotFoundErr("reservation not found")
}

type memBlackouts memTx

func (b *memBlackouts) Create(_ context.Context, bl *blackout.BlackoutDate) (int64, error) {
	id := b.store.allocID()
	bl.WithID(id)
	b.blackouts[id] = bl
	return id, nil
}

func (b *memBlackouts) Delete(_ context.Context, id int64) (*blackout.BlackoutDate, error) {
	if pending, ok := b.blackouts[id]; ok {
		delete(b.blackouts, id)
		b.deletedBlk[id] = true
		return pending, nil
	}
	b.store.mu.RLock()
	stored, ok := b.store.blackouts[id]
	b.store.mu.RUnlock()
	if !ok || b.deletedBlk[id] {
		return nil, infra.NotFoundErr("blackout not found")
	}
	b.deletedBlk[id] = true
	return stored, nil
}

func (b *memBlackouts) ActiveOn(_ context.Context, date time.Time) ([]*blackout.BlackoutDate, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	out := b.store.activeBetweenLocked(date, date)
	for _, pending := range b.blackouts {
		if pending.IsActive() && pending.Covers(date) {
			out = append(out, pending)
		}
	}
	return out, nil
}

type memCapacity memTx

// SumOverlappingQuantity reads committed rows. Writers on the same key are
// serialized by Lock, so every competing commit is already applied.
func (c *memCapacity) SumOverlappingQuantity(_ context.Context, q scheduling.UsageQuery) (int, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.store.sumLocked(q), nil
}
