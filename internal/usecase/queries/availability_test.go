//go:build unit

package queries_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra/cache"
	"booking-engine/internal/infra/memstore"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/ptr"
	"booking-engine/internal/usecase/queries"
	"booking-engine/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	monday = timerange.MustParseDate("2024-01-01")
	entry  = availability.Source{Kind: availability.SourceEntry, ID: 10, Handle: "massage"}
)

type harness struct {
	store *memstore.Store
	clock *clock.MockClock
	cache *cache.MemoryCache
	q     queries.AvailabilityQueries
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	clk := clock.NewMockClock(time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC))
	c := cache.NewMemoryCache(clk)
	q := queries.NewAvailabilityQueries(
		store, store, store,
		scheduling.NewLedger(store),
		scheduling.NewGenerator(),
		c,
		clk,
		queries.Settings{
			MinimumAdvance: 2 * time.Hour,
			Location:       time.UTC,
			Defaults:       catalog.Defaults{SlotDurationMinutes: 30, MaxCapacity: 1},
			MaxSummaryDays: 93,
			CacheTTL:       time.Minute,
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &harness{store: store, clock: clk, cache: c, q: q}
}

func window(start, end string) timerange.Range {
	return timerange.New(timerange.MustParseTimeOfDay(start), timerange.MustParseTimeOfDay(end))
}

func (h *harness) recurring(t *testing.T, id int64, day time.Weekday, start, end string) {
	t.Helper()
	h.store.AddAvailability(availability.Reconstruct(id, "Recurring", true, availability.KindRecurring, day, window(start, end), nil, entry, nil))
}

func starts(slots []scheduling.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Range.Start.String())
	}
	return out
}

func TestGetAvailableSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("success: discretizes the window with default duration", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "11:00")

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday})
		require.NoError(t, err)
		if diff := cmp.Diff([]string{"09:00", "09:30", "10:00", "10:30"}, starts(slots)); diff != "" {
			t.Errorf("slot starts mismatch (-want +got):\n%s", diff)
		}
		for _, s := range slots {
			assert.Equal(t, 1, s.RemainingCapacity)
			assert.Equal(t, int64(1), s.AvailabilityID)
		}
	})

	t.Run("success: no definitions means an empty list, not an error", func(t *testing.T) {
		h := newHarness(t)

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday})
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})

	t.Run("success: blackout empties the day", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "11:00")
		h.store.AddBlackout(blackout.Reconstruct(0, "Holiday", monday, monday, true, nil, nil))

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday})
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("success: location blackout only applies to that location", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "11:00")
		h.store.AddBlackout(blackout.Reconstruct(0, "Renovation", monday, monday, true, []int64{5}, nil))

		blocked, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, LocationID: ptr.To(int64(5))})
		require.NoError(t, err)
		assert.Empty(t, blocked)

		open, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, LocationID: ptr.To(int64(6))})
		require.NoError(t, err)
		assert.Len(t, open, 4)
	})

	t.Run("success: slots inside the lead time are dropped", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "12:00")
		h.clock.Set(time.Date(2024, 1, 1, 9, 10, 0, 0, time.UTC))

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday})
		require.NoError(t, err)
		assert.Equal(t, []string{"11:30"}, starts(slots))
	})

	t.Run("success: source filter narrows definitions", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "10:00")

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{
			Date:   monday,
			Source: availability.SourceFilter{Kind: availability.SourceSection},
		})
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("success: employee schedules replace content availability", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "10:00")
		h.store.AddSchedule(availability.ReconstructSchedule(2, "Afternoon", []int64{7}, []int{1}, window("13:00", "14:00"), true))

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, EmployeeID: ptr.To(int64(7))})
		require.NoError(t, err)
		assert.Equal(t, []string{"13:00", "13:30"}, starts(slots))
	})

	t.Run("success: service staff schedules when no employee is given", func(t *testing.T) {
		h := newHarness(t)
		svc, err := catalog.NewService(3, catalog.ServiceParams{Title: "Cut", DurationMinutes: 60, EmployeeIDs: []int64{7}, IsActive: true})
		require.NoError(t, err)
		h.store.AddService(svc)
		h.store.AddSchedule(availability.ReconstructSchedule(2, "Afternoon", []int64{7}, []int{1}, window("13:00", "15:00"), true))

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, ServiceID: ptr.To(int64(3))})
		require.NoError(t, err)
		assert.Equal(t, []string{"13:00", "14:00"}, starts(slots))
	})

	t.Run("success: existing bookings reduce remaining capacity", func(t *testing.T) {
		h := newHarness(t)
		v, err := catalog.NewVariation(1, catalog.VariationParams{Title: "Group", MaxCapacity: 3, IsActive: true})
		require.NoError(t, err)
		h.store.AddVariation(v)
		h.recurring(t, 2, time.Monday, "09:00", "10:00")
		h.store.AddReservation(builder.NewReservationBuilder().WithVariation(1).WithTime("09:00", "09:30").
			With(func(b *builder.ReservationBuilder) { b.ID = 0; b.Quantity = 2 }).BuildStored())

		slots, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, VariationID: ptr.To(int64(1))})
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, 1, slots[0].RemainingCapacity)
		assert.Equal(t, 3, slots[1].RemainingCapacity)

		full, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, VariationID: ptr.To(int64(1)), Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"09:30"}, starts(full))
	})

	t.Run("error: unknown variation", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, VariationID: ptr.To(int64(9))})
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("error: inactive variation offers no slots", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "11:00")
		v, err := catalog.NewVariation(1, catalog.VariationParams{Title: "Retired", MaxCapacity: 1, IsActive: false})
		require.NoError(t, err)
		h.store.AddVariation(v)

		_, err = h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, VariationID: ptr.To(int64(1))})
		assert.True(t, errs.Is(err, queries.ErrVariationInactive))
		assert.True(t, errs.IsNotFound(err))

		_, err = h.q.SlotSpec(ctx, queries.SlotQuery{Date: monday, VariationID: ptr.To(int64(1))})
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("error: inactive service offers no slots", func(t *testing.T) {
		h := newHarness(t)
		svc, err := catalog.NewService(3, catalog.ServiceParams{Title: "Cut", DurationMinutes: 60, EmployeeIDs: []int64{7}, IsActive: false})
		require.NoError(t, err)
		h.store.AddService(svc)
		h.store.AddSchedule(availability.ReconstructSchedule(2, "Afternoon", []int64{7}, []int{1}, window("13:00", "15:00"), true))

		_, err = h.q.GetAvailableSlots(ctx, queries.SlotQuery{Date: monday, ServiceID: ptr.To(int64(3))})
		assert.True(t, errs.Is(err, queries.ErrServiceInactive))

		ok, err := h.q.IsSlotAvailable(ctx, queries.SlotQuery{Date: monday, ServiceID: ptr.To(int64(3))}, window("13:00", "14:00"))
		assert.False(t, ok)
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestGetAvailableSlots_Cache(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.recurring(t, 1, time.Monday, "09:00", "10:00")
	q := queries.SlotQuery{Date: monday}

	first, err := h.q.GetAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, h.cache.Len())

	// A definition added behind the cache's back stays invisible until invalidated.
	h.recurring(t, 2, time.Monday, "10:00", "10:30")
	cached, err := h.q.GetAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, starts(first), starts(cached))

	require.NoError(t, queries.NewCacheInvalidator(h.cache).InvalidateDate(ctx, monday))
	fresh, err := h.q.GetAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, starts(fresh))

	t.Run("cached entries still honor the lead time", func(t *testing.T) {
		h.clock.Set(time.Date(2024, 1, 1, 7, 15, 0, 0, time.UTC))

		slots, err := h.q.GetAvailableSlots(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:30", "10:00"}, starts(slots))
	})
}

func TestIsSlotAvailable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.recurring(t, 1, time.Monday, "09:00", "10:00")
	q := queries.SlotQuery{Date: monday}

	cases := []struct {
		name  string
		rng   timerange.Range
		avail bool
	}{
		{name: "exact slot", rng: window("09:00", "09:30"), avail: true},
		{name: "inside one slot", rng: window("09:30", "09:45"), avail: true},
		{name: "straddles two slots", rng: window("09:15", "09:45"), avail: false},
		{name: "outside hours", rng: window("10:00", "10:30"), avail: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := h.q.IsSlotAvailable(ctx, q, tc.rng)
			require.NoError(t, err)
			assert.Equal(t, tc.avail, ok)
		})
	}
}

func TestGetAvailabilityForSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("success: lowest id wins regardless of kind", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 5, time.Monday, "09:00", "12:00")
		h.store.AddAvailability(availability.Reconstruct(3, "Event", true, availability.KindEvent, 0, timerange.Range{},
			[]availability.EventDate{{Date: monday, Range: window("10:00", "11:00")}}, entry, nil))

		a, err := h.q.GetAvailabilityForSlot(ctx, queries.SlotQuery{Date: monday}, window("10:00", "10:30"))
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, int64(3), a.ID())

		a, err = h.q.GetAvailabilityForSlot(ctx, queries.SlotQuery{Date: monday}, window("09:00", "09:30"))
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, int64(5), a.ID())
	})

	t.Run("success: nil when nothing contains the range", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "10:00")

		a, err := h.q.GetAvailabilityForSlot(ctx, queries.SlotQuery{Date: monday}, window("09:45", "10:15"))
		require.NoError(t, err)
		assert.Nil(t, a)
	})
}

func TestGetAvailabilitySummary(t *testing.T) {
	ctx := context.Background()

	t.Run("success: one entry per day with blackout and bookable flags", func(t *testing.T) {
		h := newHarness(t)
		h.recurring(t, 1, time.Monday, "09:00", "10:00")
		h.recurring(t, 2, time.Tuesday, "09:00", "10:00")
		tuesday := monday.AddDate(0, 0, 1)
		h.store.AddBlackout(blackout.Reconstruct(0, "Closed", tuesday, tuesday, true, nil, nil))

		got, err := h.q.GetAvailabilitySummary(ctx, monday, monday.AddDate(0, 0, 6), queries.SlotQuery{})
		require.NoError(t, err)
		require.Len(t, got, 7)

		assert.Equal(t, queries.DaySummary{HasAvailability: true, IsBookable: true}, got["2024-01-01"])
		assert.Equal(t, queries.DaySummary{HasAvailability: true, IsBlackedOut: true}, got["2024-01-02"])
		assert.Equal(t, queries.DaySummary{}, got["2024-01-03"])
	})

	t.Run("error: end before start", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.q.GetAvailabilitySummary(ctx, monday, monday.AddDate(0, 0, -1), queries.SlotQuery{})
		assert.Contains(t, errs.FieldErrors(err), "endDate")
	})

	t.Run("error: range too long", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.q.GetAvailabilitySummary(ctx, monday, monday.AddDate(0, 0, 93), queries.SlotQuery{})
		assert.True(t, errs.IsValidation(err))

		_, err = h.q.GetAvailabilitySummary(ctx, monday, monday.AddDate(0, 0, 92), queries.SlotQuery{})
		assert.NoError(t, err)
	})
}
