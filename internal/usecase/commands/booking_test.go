//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra/cache"
	"booking-engine/internal/infra/memstore"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/ptr"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bookingDate = "2024-01-01" // Monday
	variationID = int64(1)
)

var source = availability.Source{Kind: availability.SourceEntry, ID: 10, Handle: "massage"}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []shared.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job shared.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) types() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Type)
	}
	return out
}

type env struct {
	store *memstore.Store
	clock *clock.MockClock
	jobs  *recordingQueue
	avail queries.AvailabilityQueries
	cmds  commands.BookingCommands
}

type envOption func(*catalog.VariationParams)

func withCapacity(n int) envOption {
	return func(p *catalog.VariationParams) { p.MaxCapacity = n }
}

func singleSeat() envOption {
	return func(p *catalog.VariationParams) { p.AllowQuantitySelection = false }
}

func withBuffer(minutes int) envOption {
	return func(p *catalog.VariationParams) { p.BufferMinutes = ptr.To(minutes) }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	store := memstore.New()
	vp := catalog.VariationParams{
		Title:                  "Standard",
		SlotDurationMinutes:    ptr.To(30),
		MaxCapacity:            3,
		AllowQuantitySelection: true,
		IsActive:               true,
	}
	for _, o := range opts {
		o(&vp)
	}
	v, err := catalog.NewVariation(variationID, vp)
	require.NoError(t, err)
	store.AddVariation(v)

	a, err := availability.NewRecurring("Morning", time.Monday, timerange.New(
		timerange.MustParseTimeOfDay("09:00"), timerange.MustParseTimeOfDay("12:00"),
	), source, nil)
	require.NoError(t, err)
	store.AddAvailability(a)

	clk := clock.NewMockClock(time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policy := reservation.Policy{
		MinimumAdvance:     2 * time.Hour,
		CancellationWindow: 24 * time.Hour,
		Location:           time.UTC,
	}
	slotCache := cache.NewMemoryCache(clk)
	avail := queries.NewAvailabilityQueries(
		store, store, store,
		scheduling.NewLedger(store),
		scheduling.NewGenerator(),
		slotCache,
		clk,
		queries.Settings{
			MinimumAdvance: policy.MinimumAdvance,
			Location:       time.UTC,
			Defaults:       catalog.Defaults{SlotDurationMinutes: 30, MaxCapacity: 1},
			MaxSummaryDays: 93,
			CacheTTL:       time.Minute,
		},
		logger,
	)
	jobs := &recordingQueue{}
	cmds := commands.NewBookingCommands(
		memstore.NewUnitOfWork(store),
		avail,
		store,
		queries.NewCacheInvalidator(slotCache),
		jobs,
		reservation.NewFactory(clk, policy),
		clk,
		logger,
	)
	return &env{store: store, clock: clk, jobs: jobs, avail: avail, cmds: cmds}
}

func params(start, end string, qty int) commands.CreateBookingParams {
	return commands.CreateBookingParams{
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Timezone:    "UTC",
		Date:        bookingDate,
		StartTime:   start,
		EndTime:     end,
		Quantity:    qty,
		VariationID: ptr.To(variationID),
	}
}

func (e *env) heldQuantity() int {
	sum := 0
	for _, r := range e.store.Reservations() {
		if r.Status().HoldsCapacity() {
			sum += r.Quantity()
		}
	}
	return sum
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("success: creates a pending reservation stamped with its source", func(t *testing.T) {
		e := newEnv(t)

		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		assert.NotZero(t, res.ID())
		assert.Equal(t, reservation.StatusPending, res.Status())
		assert.Equal(t, source, res.Source())
		assert.NotEmpty(t, res.ConfirmationToken())
		assert.Equal(t, []string{shared.JobBookingCreated}, e.jobs.types())
	})

	t.Run("error: N bookings fill capacity and the next one conflicts", func(t *testing.T) {
		e := newEnv(t, withCapacity(3))

		for i := 0; i < 3; i++ {
			_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
			require.NoError(t, err, "booking %d", i+1)
		}

		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.Error(t, err)
		assert.True(t, errs.IsConflict(err))
		assert.True(t, errs.Is(err, commands.ErrInsufficientCapacity))
		assert.Equal(t, 3, e.heldQuantity())
	})

	t.Run("error: quantity larger than remaining capacity conflicts", func(t *testing.T) {
		e := newEnv(t, withCapacity(3))

		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 2))
		require.NoError(t, err)

		_, err = e.cmds.CreateBooking(ctx, params("10:00", "10:30", 2))
		assert.True(t, errs.IsConflict(err))
	})

	t.Run("success: non-overlapping slots do not share capacity", func(t *testing.T) {
		e := newEnv(t, withCapacity(1))

		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)
		_, err = e.cmds.CreateBooking(ctx, params("10:30", "11:00", 1))
		require.NoError(t, err)
	})

	t.Run("error: range outside available hours", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.cmds.CreateBooking(ctx, params("12:00", "12:30", 1))
		assert.True(t, errs.Is(err, commands.ErrSlotUnavailable))
		assert.True(t, errs.IsConflict(err))
	})

	t.Run("error: blacked out date conflicts", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.cmds.CreateBlackout(ctx, commands.BlackoutParams{
			Title:     "Holiday",
			StartDate: bookingDate,
			EndDate:   bookingDate,
		})
		require.NoError(t, err)

		_, err = e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		assert.True(t, errs.Is(err, commands.ErrBlackedOut))
	})

	t.Run("error: field validation reports every bad field", func(t *testing.T) {
		e := newEnv(t)
		p := params("10:00", "nope", 0)
		p.Name = " "
		p.Email = "not-an-email"

		_, err := e.cmds.CreateBooking(ctx, p)
		require.True(t, errs.IsValidation(err))

		fields := errs.FieldErrors(err)
		for _, f := range []string{"userName", "userEmail", "quantity", "endTime"} {
			assert.Contains(t, fields, f)
		}
		assert.Empty(t, e.store.Reservations())
	})

	t.Run("error: end before start", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.cmds.CreateBooking(ctx, params("10:30", "10:00", 1))
		assert.Contains(t, errs.FieldErrors(err), "endTime")
	})

	t.Run("error: quantity selection disabled on the variation", func(t *testing.T) {
		e := newEnv(t, singleSeat())

		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 2))
		assert.Contains(t, errs.FieldErrors(err), "quantity")
	})

	t.Run("error: lead time not met", func(t *testing.T) {
		e := newEnv(t)
		e.clock.Set(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		assert.Contains(t, errs.FieldErrors(err), "startTime")
	})

	t.Run("error: unknown variation is not found", func(t *testing.T) {
		e := newEnv(t)
		p := params("10:00", "10:30", 1)
		p.VariationID = ptr.To(int64(99))

		_, err := e.cmds.CreateBooking(ctx, p)
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestCreateBooking_CapacityPools(t *testing.T) {
	ctx := context.Background()

	staffed := func(t *testing.T, e *env) {
		t.Helper()
		sc, err := availability.NewSchedule("Staff", []int64{7, 8}, []int{1}, timerange.New(
			timerange.MustParseTimeOfDay("09:00"), timerange.MustParseTimeOfDay("12:00"),
		))
		require.NoError(t, err)
		e.store.AddSchedule(sc)
	}
	withEmployee := func(p commands.CreateBookingParams, id int64) commands.CreateBookingParams {
		p.EmployeeID = ptr.To(id)
		return p
	}
	unscoped := func() commands.CreateBookingParams {
		p := params("10:00", "10:30", 1)
		p.VariationID = nil
		return p
	}

	t.Run("error: employees on one variation share its capacity", func(t *testing.T) {
		e := newEnv(t, withCapacity(1))
		staffed(t, e)

		_, err := e.cmds.CreateBooking(ctx, withEmployee(params("10:00", "10:30", 1), 7))
		require.NoError(t, err)

		_, err = e.cmds.CreateBooking(ctx, withEmployee(params("10:00", "10:30", 1), 8))
		assert.True(t, errs.Is(err, commands.ErrInsufficientCapacity))
		assert.Equal(t, 1, e.heldQuantity())

		slots, err := e.avail.GetAvailableSlots(ctx, queries.SlotQuery{
			Date:        timerange.MustParseDate(bookingDate),
			VariationID: ptr.To(variationID),
			EmployeeID:  ptr.To(int64(8)),
		})
		require.NoError(t, err)
		for _, s := range slots {
			assert.NotEqual(t, "10:00", s.Range.Start.String())
		}
	})

	t.Run("success: unscoped and variation bookings draw from separate pools in either order", func(t *testing.T) {
		orders := map[string][]commands.CreateBookingParams{
			"unscoped first":  {unscoped(), params("10:00", "10:30", 1)},
			"variation first": {params("10:00", "10:30", 1), unscoped()},
		}
		for name, order := range orders {
			e := newEnv(t, withCapacity(1))
			for _, p := range order {
				_, err := e.cmds.CreateBooking(ctx, p)
				require.NoError(t, err, name)
			}
			assert.Equal(t, 2, e.heldQuantity(), name)

			_, err := e.cmds.CreateBooking(ctx, unscoped())
			assert.True(t, errs.Is(err, commands.ErrInsufficientCapacity), name)
			_, err = e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
			assert.True(t, errs.Is(err, commands.ErrInsufficientCapacity), name)
		}
	})
}

func TestCreateBooking_BuffersBlockBothNeighbours(t *testing.T) {
	ctx := context.Background()

	t.Run("error: slot inside an earlier booking's after-buffer", func(t *testing.T) {
		e := newEnv(t, withCapacity(1), withBuffer(15))
		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		_, err = e.cmds.CreateBooking(ctx, params("10:30", "11:00", 1))
		assert.True(t, errs.Is(err, commands.ErrInsufficientCapacity))
	})

	t.Run("error: slot whose after-buffer reaches a later booking", func(t *testing.T) {
		e := newEnv(t, withCapacity(1), withBuffer(15))
		_, err := e.cmds.CreateBooking(ctx, params("11:00", "11:30", 1))
		require.NoError(t, err)

		_, err = e.cmds.CreateBooking(ctx, params("10:30", "11:00", 1))
		assert.True(t, errs.Is(err, commands.ErrInsufficientCapacity))
	})

	t.Run("success: booking right after the buffer ends", func(t *testing.T) {
		e := newEnv(t, withCapacity(1), withBuffer(15))
		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		_, err = e.cmds.CreateBooking(ctx, params("10:45", "11:15", 1))
		assert.NoError(t, err)
	})

	t.Run("success: listed slots agree with the write path", func(t *testing.T) {
		e := newEnv(t, withCapacity(1), withBuffer(15))
		_, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		slots, err := e.avail.GetAvailableSlots(ctx, queries.SlotQuery{
			Date:        timerange.MustParseDate(bookingDate),
			VariationID: ptr.To(variationID),
		})
		require.NoError(t, err)
		got := make([]string, 0, len(slots))
		for _, s := range slots {
			got = append(got, s.Range.Start.String())
		}
		assert.Equal(t, []string{"09:00", "11:00", "11:30"}, got)
	})
}

func TestCreateBooking_ConcurrentWritersNeverExceedCapacity(t *testing.T) {
	const (
		capacity = 4
		writers  = 24
	)
	e := newEnv(t, withCapacity(capacity))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.cmds.CreateBooking(context.Background(), params("10:00", "10:30", 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errs.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, capacity, ok)
	assert.Equal(t, writers-capacity, conflicts)
	assert.Equal(t, capacity, e.heldQuantity())
}

func TestCreateBooking_InvalidatesCachedSlots(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, withCapacity(2))
	q := queries.SlotQuery{Date: timerange.MustParseDate(bookingDate), VariationID: ptr.To(variationID)}

	before, err := e.avail.GetAvailableSlots(ctx, q)
	require.NoError(t, err)
	require.NotEmpty(t, before)
	assert.Equal(t, 2, before[2].RemainingCapacity)

	_, err = e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
	require.NoError(t, err)

	after, err := e.avail.GetAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "10:00", after[2].Range.Start.String())
	assert.Equal(t, 1, after[2].RemainingCapacity)
}

func TestBookingTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("success: confirm then cancel", func(t *testing.T) {
		e := newEnv(t)
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		confirmed, err := e.cmds.ConfirmBooking(ctx, res.ID())
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, confirmed.Status())

		cancelled, err := e.cmds.CancelBooking(ctx, res.ID())
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled, cancelled.Status())
		assert.Equal(t, 0, e.heldQuantity())
		assert.Equal(t, []string{
			shared.JobBookingCreated, shared.JobBookingStatusChanged, shared.JobBookingCancelled,
		}, e.jobs.types())
	})

	t.Run("error: nothing leaves cancelled", func(t *testing.T) {
		e := newEnv(t)
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)
		_, err = e.cmds.CancelBooking(ctx, res.ID())
		require.NoError(t, err)

		_, err = e.cmds.ConfirmBooking(ctx, res.ID())
		assert.Contains(t, errs.FieldErrors(err), "status")
	})

	t.Run("error: unknown id", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.cmds.ConfirmBooking(ctx, 404)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("cancellation frees capacity for the next booking", func(t *testing.T) {
		e := newEnv(t, withCapacity(1))
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)
		_, err = e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.True(t, errs.IsConflict(err))

		_, err = e.cmds.CancelBooking(ctx, res.ID())
		require.NoError(t, err)
		_, err = e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		assert.NoError(t, err)
	})
}

func TestCancelByToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success: outside the cancellation window", func(t *testing.T) {
		e := newEnv(t)
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		cancelled, err := e.cmds.CancelByToken(ctx, res.ConfirmationToken())
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled, cancelled.Status())
	})

	t.Run("error: inside the cancellation window, while the admin path still works", func(t *testing.T) {
		e := newEnv(t)
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)
		e.clock.Set(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))

		_, err = e.cmds.CancelByToken(ctx, res.ConfirmationToken())
		assert.Contains(t, errs.FieldErrors(err), "status")

		_, err = e.cmds.CancelBooking(ctx, res.ID())
		assert.NoError(t, err)
	})

	t.Run("error: empty and unknown tokens", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.cmds.CancelByToken(ctx, "")
		assert.Contains(t, errs.FieldErrors(err), "token")

		_, err = e.cmds.CancelByToken(ctx, "missing")
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestRescheduleBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("success: overlapping its own slot does not count against itself", func(t *testing.T) {
		e := newEnv(t, withCapacity(1))
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		moved, err := e.cmds.RescheduleBooking(ctx, res.ID(), commands.RescheduleParams{
			Date: bookingDate, StartTime: "10:15", EndTime: "10:45",
		})
		require.NoError(t, err)
		assert.Equal(t, "10:15", moved.Slot().Range().Start.String())
		assert.Equal(t, 1, moved.Quantity())
	})

	t.Run("error: target slot is full", func(t *testing.T) {
		e := newEnv(t, withCapacity(1))
		_, err := e.cmds.CreateBooking(ctx, params("11:00", "11:30", 1))
		require.NoError(t, err)
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		_, err = e.cmds.RescheduleBooking(ctx, res.ID(), commands.RescheduleParams{
			Date: bookingDate, StartTime: "11:00", EndTime: "11:30",
		})
		assert.True(t, errs.IsConflict(err))

		stored, err := e.cmds.ConfirmBooking(ctx, res.ID())
		require.NoError(t, err)
		assert.Equal(t, "10:00", stored.Slot().Range().Start.String())
	})

	t.Run("error: raising quantity on a single-seat variation", func(t *testing.T) {
		e := newEnv(t, singleSeat())
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		_, err = e.cmds.RescheduleBooking(ctx, res.ID(), commands.RescheduleParams{
			Date: bookingDate, StartTime: "11:00", EndTime: "11:30", Quantity: 2,
		})
		assert.Contains(t, errs.FieldErrors(err), "quantity")
	})

	t.Run("error: variation deactivated after booking", func(t *testing.T) {
		e := newEnv(t)
		res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
		require.NoError(t, err)

		inactive, err := catalog.NewVariation(variationID, catalog.VariationParams{
			Title: "Standard", SlotDurationMinutes: ptr.To(30), MaxCapacity: 3, IsActive: false,
		})
		require.NoError(t, err)
		e.store.AddVariation(inactive)

		_, err = e.cmds.RescheduleBooking(ctx, res.ID(), commands.RescheduleParams{
			Date: bookingDate, StartTime: "11:00", EndTime: "11:30",
		})
		assert.True(t, errs.Is(err, commands.ErrVariationInactive))
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("error: bad input", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.cmds.RescheduleBooking(ctx, 1, commands.RescheduleParams{Date: "01/01/2024", StartTime: "10:00", EndTime: "10:30"})
		assert.Contains(t, errs.FieldErrors(err), "bookingDate")
	})
}

func TestDeleteBooking(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	res, err := e.cmds.CreateBooking(ctx, params("10:00", "10:30", 1))
	require.NoError(t, err)

	require.NoError(t, e.cmds.DeleteBooking(ctx, res.ID()))
	assert.Empty(t, e.store.Reservations())
	assert.True(t, errs.IsNotFound(e.cmds.DeleteBooking(ctx, res.ID())))
}

func TestBlackouts(t *testing.T) {
	ctx := context.Background()

	t.Run("success: deleting a blackout reopens the date", func(t *testing.T) {
		e := newEnv(t)
		q := queries.SlotQuery{Date: timerange.MustParseDate(bookingDate), VariationID: ptr.To(variationID)}

		b, err := e.cmds.CreateBlackout(ctx, commands.BlackoutParams{Title: "Closed", StartDate: bookingDate, EndDate: "2024-01-02"})
		require.NoError(t, err)
		slots, err := e.avail.GetAvailableSlots(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, slots)

		require.NoError(t, e.cmds.DeleteBlackout(ctx, b.ID()))
		slots, err = e.avail.GetAvailableSlots(ctx, q)
		require.NoError(t, err)
		assert.Len(t, slots, 6)
	})

	t.Run("error: end before start", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.cmds.CreateBlackout(ctx, commands.BlackoutParams{Title: "Closed", StartDate: "2024-01-02", EndDate: bookingDate})
		assert.Contains(t, errs.FieldErrors(err), "endDate")
	})

	t.Run("error: unknown id", func(t *testing.T) {
		e := newEnv(t)

		assert.True(t, errs.IsNotFound(e.cmds.DeleteBlackout(ctx, 77)))
	})
}
