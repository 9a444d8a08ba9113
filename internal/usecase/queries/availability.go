package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrVariationInactive = errs.New("variation is not active")
	ErrServiceInactive   = errs.New("service is not active")
)

// SlotQuery selects the slots to compute for one date. Nil ids are unfiltered.
type SlotQuery struct {
	Date        time.Time
	EmployeeID  *int64
	LocationID  *int64
	ServiceID   *int64
	VariationID *int64
	Source      availability.SourceFilter
	Quantity    int
}

func (q SlotQuery) normalized() SlotQuery {
	q.Date = timerange.DateOf(q.Date)
	if q.Quantity < 1 {
		q.Quantity = 1
	}
	return q
}

type DaySummary struct {
	HasAvailability bool `json:"hasAvailability"`
	IsBlackedOut    bool `json:"isBlackedOut"`
	IsBookable      bool `json:"isBookable"`
}

type AvailabilityQueries interface {
	GetAvailableSlots(ctx context.Context, q SlotQuery) ([]scheduling.Slot, error)
	IsSlotAvailable(ctx context.Context, q SlotQuery, rng timerange.Range) (bool, error)
	// IsWithinHours reports whether rng lies inside a resolved window, ignoring capacity and blackouts.
	IsWithinHours(ctx context.Context, q SlotQuery, rng timerange.Range) (bool, error)
	GetAvailabilityForSlot(ctx context.Context, q SlotQuery, rng timerange.Range) (*availability.Availability, error)
	GetAvailabilitySummary(ctx context.Context, start, end time.Time, q SlotQuery) (map[string]DaySummary, error)
	// SlotSpec resolves duration, buffers and capacity for the query's variation and service.
	SlotSpec(ctx context.Context, q SlotQuery) (catalog.SlotSpec, error)
}

type availabilityQueriesImpl struct {
	defs      DefinitionReader
	blackouts BlackoutReader
	catalog   CatalogReader
	ledger    *scheduling.Ledger
	generator *scheduling.Generator
	cache     Cache
	clock     clock.Clock
	settings  Settings
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewAvailabilityQueries(
	defs DefinitionReader,
	blackouts BlackoutReader,
	catalog CatalogReader,
	ledger *scheduling.Ledger,
	generator *scheduling.Generator,
	cache Cache,
	clock clock.Clock,
	settings Settings,
	logger *slog.Logger,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		defs:      defs,
		blackouts: blackouts,
		catalog:   catalog,
		ledger:    ledger,
		generator: generator,
		cache:     cache,
		clock:     clock,
		settings:  settings,
		logger:    logger,
		tracer:    otel.Tracer("booking-engine/availability"),
	}
}

type plan struct {
	spec    catalog.SlotSpec
	filter  scheduling.Filter
	scope   scheduling.Scope
	windows []scheduling.Window
}

func (s *availabilityQueriesImpl) lookupCatalog(ctx context.Context, q SlotQuery) (*catalog.Variation, *catalog.Service, error) {
	var (
		v   *catalog.Variation
		svc *catalog.Service
		err error
	)
	if q.VariationID != nil {
		if v, err = s.catalog.VariationByID(ctx, *q.VariationID); err != nil {
			return nil, nil, err
		}
		if !v.IsActive() {
			return nil, nil, errs.Mark(ErrVariationInactive, errs.ErrNotFound)
		}
	}
	serviceID := q.ServiceID
	if serviceID == nil && v != nil {
		serviceID = v.ServiceID()
	}
	if serviceID != nil {
		if svc, err = s.catalog.ServiceByID(ctx, *serviceID); err != nil {
			return nil, nil, err
		}
		if !svc.IsActive() {
			return nil, nil, errs.Mark(ErrServiceInactive, errs.ErrNotFound)
		}
	}
	return v, svc, nil
}

func (s *availabilityQueriesImpl) SlotSpec(ctx context.Context, q SlotQuery) (catalog.SlotSpec, error) {
	v, svc, err := s.lookupCatalog(ctx, q)
	if err != nil {
		return catalog.SlotSpec{}, err
	}
	return catalog.ResolveSlotSpec(v, svc, s.settings.Defaults)
}

func (s *availabilityQueriesImpl) buildPlan(ctx context.Context, q SlotQuery) (*plan, error) {
	v, svc, err := s.lookupCatalog(ctx, q)
	if err != nil {
		return nil, err
	}
	spec, err := catalog.ResolveSlotSpec(v, svc, s.settings.Defaults)
	if err != nil {
		return nil, err
	}

	filter := scheduling.Filter{
		EmployeeID:  q.EmployeeID,
		VariationID: q.VariationID,
		Source:      q.Source,
	}
	if q.ServiceID != nil && svc != nil {
		filter.StaffIDs = svc.EmployeeIDs()
	}

	p := &plan{
		spec:   spec,
		filter: filter,
		scope:  scheduling.PoolOf(q.VariationID, q.EmployeeID),
	}

	var defs scheduling.Definitions
	switch filter.Mode() {
	case scheduling.ModeEmployee, scheduling.ModeServiceStaff:
		defs.Schedules, err = s.defs.SchedulesOn(ctx, q.Date, filter.Employees())
	default:
		defs.Availabilities, err = s.defs.AvailabilitiesOn(ctx, q.Date, q.Source)
	}
	if err != nil {
		return nil, errs.Wrap(err, "failed to load availability definitions")
	}
	p.windows = scheduling.Resolve(q.Date, defs, filter)
	return p, nil
}

func (s *availabilityQueriesImpl) generate(ctx context.Context, q SlotQuery, p *plan, blocked bool) ([]scheduling.Slot, error) {
	return s.generator.Generate(ctx, scheduling.Request{
		Date:           q.Date,
		Windows:        p.windows,
		Spec:           p.spec,
		Quantity:       q.Quantity,
		Now:            s.clock.Now(),
		MinimumAdvance: s.settings.MinimumAdvance,
		Location:       s.settings.Location,
		Blocked:        blocked,
	}, s.ledger.CapacityFor(p.scope, q.Date, p.spec.MaxCapacity, nil))
}

type cachedSlot struct {
	Start     int   `json:"s"`
	End       int   `json:"e"`
	Remaining int   `json:"r"`
	Source    int64 `json:"a,omitempty"`
}

func (s *availabilityQueriesImpl) GetAvailableSlots(ctx context.Context, q SlotQuery) ([]scheduling.Slot, error) {
	q = q.normalized()
	ctx, span := s.tracer.Start(ctx, "availability.slots",
		trace.WithAttributes(
			attribute.String("booking.date", timerange.FormatDate(q.Date)),
			attribute.Int("booking.quantity", q.Quantity),
		),
	)
	defer span.End()

	key := slotCacheKey(q)
	if slots, ok := s.fromCache(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return s.dropPastLeadTime(q.Date, slots), nil
	}

	slots, err := s.computeSlots(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.toCache(ctx, key, slots)
	span.SetAttributes(attribute.Int("slots.count", len(slots)))
	return slots, nil
}

func (s *availabilityQueriesImpl) computeSlots(ctx context.Context, q SlotQuery) ([]scheduling.Slot, error) {
	p, err := s.buildPlan(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(p.windows) == 0 {
		return []scheduling.Slot{}, nil
	}

	list, err := s.blackouts.ActiveOn(ctx, q.Date)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load blackouts")
	}
	blocked := blackout.AnyApplies(list, q.Date, q.LocationID, q.EmployeeID)

	return s.generate(ctx, q, p, blocked)
}

// Cached results were computed against an earlier "now".
func (s *availabilityQueriesImpl) dropPastLeadTime(date time.Time, slots []scheduling.Slot) []scheduling.Slot {
	earliest := s.clock.Now().Add(s.settings.MinimumAdvance)
	out := slots[:0]
	for _, sl := range slots {
		if !timerange.At(date, sl.Range.Start, s.settings.Location).Before(earliest) {
			out = append(out, sl)
		}
	}
	return out
}

func (s *availabilityQueriesImpl) fromCache(ctx context.Context, key string) ([]scheduling.Slot, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("slot cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entries []cachedSlot
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("slot cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	slots := make([]scheduling.Slot, 0, len(entries))
	for _, e := range entries {
		slots = append(slots, scheduling.Slot{
			Range:             timerange.New(timerange.TimeOfDay(e.Start), timerange.TimeOfDay(e.End)),
			RemainingCapacity: e.Remaining,
			AvailabilityID:    e.Source,
		})
	}
	return slots, true
}

func (s *availabilityQueriesImpl) toCache(ctx context.Context, key string, slots []scheduling.Slot) {
	if s.cache == nil || s.settings.CacheTTL <= 0 {
		return
	}
	entries := make([]cachedSlot, 0, len(slots))
	for _, sl := range slots {
		entries = append(entries, cachedSlot{
			Start:     int(sl.Range.Start),
			End:       int(sl.Range.End),
			Remaining: sl.RemainingCapacity,
			Source:    sl.AvailabilityID,
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.settings.CacheTTL); err != nil {
		s.logger.Warn("slot cache write failed", "key", key, "error", err)
	}
}

// IsSlotAvailable reports whether rng lies within one bookable slot for a single seat.
func (s *availabilityQueriesImpl) IsSlotAvailable(ctx context.Context, q SlotQuery, rng timerange.Range) (bool, error) {
	q.Quantity = 1
	slots, err := s.GetAvailableSlots(ctx, q)
	if err != nil {
		return false, err
	}
	for _, sl := range slots {
		if sl.Range.Contains(rng) {
			return true, nil
		}
	}
	return false, nil
}

func (s *availabilityQueriesImpl) IsWithinHours(ctx context.Context, q SlotQuery, rng timerange.Range) (bool, error) {
	p, err := s.buildPlan(ctx, q.normalized())
	if err != nil {
		return false, err
	}
	for _, w := range p.windows {
		if w.Range.Contains(rng) {
			return true, nil
		}
	}
	return false, nil
}

// GetAvailabilityForSlot returns the lowest-id content availability whose window contains rng.
func (s *availabilityQueriesImpl) GetAvailabilityForSlot(ctx context.Context, q SlotQuery, rng timerange.Range) (*availability.Availability, error) {
	q = q.normalized()
	records, err := s.defs.AvailabilitiesOn(ctx, q.Date, q.Source)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load availability definitions")
	}
	return scheduling.FirstContaining(q.Date, records, rng, scheduling.Filter{
		VariationID: q.VariationID,
		Source:      q.Source,
	}), nil
}

func (s *availabilityQueriesImpl) GetAvailabilitySummary(ctx context.Context, start, end time.Time, q SlotQuery) (map[string]DaySummary, error) {
	start, end = timerange.DateOf(start), timerange.DateOf(end)
	if end.Before(start) {
		return nil, errs.Invalid("endDate", "must not be before startDate")
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > s.settings.MaxSummaryDays {
		return nil, errs.Invalid("endDate", "range is too long")
	}

	ctx, span := s.tracer.Start(ctx, "availability.summary",
		trace.WithAttributes(attribute.Int("booking.days", days)),
	)
	defer span.End()

	all, err := s.blackouts.ActiveBetween(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		return nil, errs.Wrap(err, "failed to load blackouts")
	}

	out := make(map[string]DaySummary, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dq := q
		dq.Date = d
		dq = dq.normalized()

		p, err := s.buildPlan(ctx, dq)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		has := false
		if len(p.windows) > 0 {
			slots, err := s.generate(ctx, dq, p, false)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			has = len(slots) > 0
		}
		blocked := blackout.AnyApplies(all, d, dq.LocationID, dq.EmployeeID)
		out[timerange.FormatDate(d)] = DaySummary{
			HasAvailability: has,
			IsBlackedOut:    blocked,
			IsBookable:      has && !blocked,
		}
	}
	return out, nil
}
