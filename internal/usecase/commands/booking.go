package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/shared"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrSlotUnavailable      = errs.New("requested time is outside available hours")
	ErrBlackedOut           = errs.New("date is blacked out")
	ErrInsufficientCapacity = errs.New("not enough capacity left for this slot")
	ErrVariationInactive    = queries.ErrVariationInactive
)

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/commands/booking.go -package=commandsmock
type BookingCommands interface {
	CreateBooking(ctx context.Context, p CreateBookingParams) (*reservation.Reservation, error)
	ConfirmBooking(ctx context.Context, id int64) (*reservation.Reservation, error)
	// CancelBooking is the administrator path and ignores the cancellation window.
	CancelBooking(ctx context.Context, id int64) (*reservation.Reservation, error)
	CancelByToken(ctx context.Context, token string) (*reservation.Reservation, error)
	RescheduleBooking(ctx context.Context, id int64, p RescheduleParams) (*reservation.Reservation, error)
	DeleteBooking(ctx context.Context, id int64) error
	CreateBlackout(ctx context.Context, p BlackoutParams) (*blackout.BlackoutDate, error)
	DeleteBlackout(ctx context.Context, id int64) error
}

type bookingCommandsImpl struct {
	uow          shared.UnitOfWork
	availability queries.AvailabilityQueries
	catalog      queries.CatalogReader
	invalidator  queries.Invalidator
	jobs         shared.JobQueue
	factory      *reservation.Factory
	clock        clock.Clock
	logger       *slog.Logger
	tracer       trace.Tracer
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	availability queries.AvailabilityQueries,
	catalog queries.CatalogReader,
	invalidator queries.Invalidator,
	jobs shared.JobQueue,
	factory *reservation.Factory,
	clock clock.Clock,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:          uow,
		availability: availability,
		catalog:      catalog,
		invalidator:  invalidator,
		jobs:         jobs,
		factory:      factory,
		clock:        clock,
		logger:       logger,
		tracer:       otel.Tracer("booking-engine/booking"),
	}
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, p CreateBookingParams) (*reservation.Reservation, error) {
	ctx, span := c.tracer.Start(ctx, "booking.create")
	defer span.End()

	contact, slot, err := validateCreate(p)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("booking.date", timerange.FormatDate(slot.Date())),
		attribute.String("booking.range", slot.Range().String()),
	)

	q := queries.SlotQuery{
		Date:        slot.Date(),
		EmployeeID:  p.EmployeeID,
		LocationID:  p.LocationID,
		ServiceID:   p.ServiceID,
		VariationID: p.VariationID,
		Quantity:    p.Quantity,
	}

	if err := c.checkQuantitySelection(ctx, p.VariationID, p.Quantity); err != nil {
		return nil, err
	}
	spec, err := c.availability.SlotSpec(ctx, q)
	if err != nil {
		return nil, err
	}

	res, err := c.factory.CreateReservation(reservation.NewParams{
		Contact:  contact,
		Slot:     slot,
		Quantity: p.Quantity,
		Scope: reservation.Scope{
			VariationID: p.VariationID,
			ServiceID:   p.ServiceID,
			EmployeeID:  p.EmployeeID,
			LocationID:  p.LocationID,
		},
		Notes: reservation.NewNote(p.Notes),
	})
	if err != nil {
		return nil, translateDomainErr(err)
	}

	if err := c.ensureWithinHours(ctx, q, slot.Range()); err != nil {
		return nil, err
	}
	src, err := c.availability.GetAvailabilityForSlot(ctx, q, slot.Range())
	if err != nil {
		return nil, err
	}
	if src != nil {
		res.StampSource(src.Source())
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		scope := capacityScope(res)
		if err := tx.Lock(ctx, shared.LockKeys(scope, slot.Date())...); err != nil {
			return err
		}
		if err := checkConflict(ctx, tx, res, spec, nil); err != nil {
			return err
		}
		id, err := tx.Reservations().Create(ctx, res)
		if err != nil {
			return err
		}
		res.WithID(id)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.afterWrite(ctx, shared.JobBookingCreated, res, "", slot.Date())
	return res, nil
}

func (c *bookingCommandsImpl) checkQuantitySelection(ctx context.Context, variationID *int64, quantity int) error {
	if variationID == nil {
		if quantity > 1 {
			return errs.Invalid("quantity", "quantity selection requires a variation")
		}
		return nil
	}
	v, err := c.catalog.VariationByID(ctx, *variationID)
	if err != nil {
		return err
	}
	if !v.IsActive() {
		return errs.Mark(ErrVariationInactive, errs.ErrNotFound)
	}
	if quantity > 1 && !v.AllowQuantitySelection() {
		return errs.Invalid("quantity", "this variation does not allow selecting a quantity")
	}
	return nil
}

func (c *bookingCommandsImpl) ensureWithinHours(ctx context.Context, q queries.SlotQuery, rng timerange.Range) error {
	ok, err := c.availability.IsWithinHours(ctx, q, rng)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Mark(ErrSlotUnavailable, errs.ErrConflict)
	}
	return nil
}

func capacityScope(r *reservation.Reservation) scheduling.Scope {
	return scheduling.PoolOf(r.Scope().VariationID, r.Scope().EmployeeID)
}

// checkConflict re-validates blackout and capacity inside the write transaction.
func checkConflict(ctx context.Context, tx shared.Tx, r *reservation.Reservation, spec catalog.SlotSpec, excludeID *int64) error {
	date := r.Slot().Date()
	list, err := tx.Blackouts().ActiveOn(ctx, date)
	if err != nil {
		return err
	}
	if blackout.AnyApplies(list, date, r.Scope().LocationID, r.Scope().EmployeeID) {
		return errs.Mark(ErrBlackedOut, errs.ErrConflict)
	}

	ledger := scheduling.NewLedger(tx.Capacity())
	remaining, err := ledger.Remaining(ctx, spec.MaxCapacity, scheduling.UsageQuery{
		Scope:     capacityScope(r),
		Date:      date,
		Window:    spec.ContentionWindow(r.Slot().Range()),
		ExcludeID: excludeID,
	})
	if err != nil {
		return err
	}
	if remaining < r.Quantity() {
		return errs.Mark(ErrInsufficientCapacity, errs.ErrConflict)
	}
	return nil
}

func (c *bookingCommandsImpl) ConfirmBooking(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return c.transition(ctx, "booking.confirm", id, shared.JobBookingStatusChanged, func(r *reservation.Reservation) error {
		return r.Confirm(c.clock.Now())
	})
}

func (c *bookingCommandsImpl) CancelBooking(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return c.transition(ctx, "booking.cancel", id, shared.JobBookingCancelled, func(r *reservation.Reservation) error {
		return r.ForceCancel(c.clock.Now())
	})
}

func (c *bookingCommandsImpl) transition(
	ctx context.Context,
	spanName string,
	id int64,
	jobType string,
	apply func(*reservation.Reservation) error,
) (*reservation.Reservation, error) {
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.Int64("booking.id", id)))
	defer span.End()

	var (
		res  *reservation.Reservation
		prev reservation.Status
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		if res, err = tx.Reservations().FindByID(ctx, id); err != nil {
			return err
		}
		prev = res.Status()
		if err := apply(res); err != nil {
			return translateDomainErr(err)
		}
		return tx.Reservations().Update(ctx, res)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.afterWrite(ctx, jobType, res, prev, res.Slot().Date())
	return res, nil
}

func (c *bookingCommandsImpl) CancelByToken(ctx context.Context, token string) (*reservation.Reservation, error) {
	if token == "" {
		return nil, errs.Invalid("token", "token is required")
	}
	ctx, span := c.tracer.Start(ctx, "booking.cancel_by_token")
	defer span.End()

	var (
		res  *reservation.Reservation
		prev reservation.Status
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		if res, err = tx.Reservations().FindByToken(ctx, token); err != nil {
			return err
		}
		prev = res.Status()
		if err := res.Cancel(c.clock.Now(), c.factory.Policy); err != nil {
			return translateDomainErr(err)
		}
		return tx.Reservations().Update(ctx, res)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.afterWrite(ctx, shared.JobBookingCancelled, res, prev, res.Slot().Date())
	return res, nil
}

func (c *bookingCommandsImpl) RescheduleBooking(ctx context.Context, id int64, p RescheduleParams) (*reservation.Reservation, error) {
	ctx, span := c.tracer.Start(ctx, "booking.reschedule", trace.WithAttributes(attribute.Int64("booking.id", id)))
	defer span.End()

	slot, err := validateSlot(p.Date, p.StartTime, p.EndTime)
	if err != nil {
		return nil, err
	}
	if p.Quantity < 0 {
		return nil, errs.Invalid("quantity", "must be at least 1")
	}

	var (
		res     *reservation.Reservation
		oldDate time.Time
	)
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		if res, err = tx.Reservations().FindByID(ctx, id); err != nil {
			return err
		}
		oldDate = res.Slot().Date()

		qty := p.Quantity
		if qty == 0 {
			qty = res.Quantity()
		}
		scope := res.Scope()
		if err := c.checkQuantitySelection(ctx, scope.VariationID, qty); err != nil {
			return err
		}
		q := queries.SlotQuery{
			Date:        slot.Date(),
			EmployeeID:  scope.EmployeeID,
			LocationID:  scope.LocationID,
			ServiceID:   scope.ServiceID,
			VariationID: scope.VariationID,
		}
		spec, err := c.availability.SlotSpec(ctx, q)
		if err != nil {
			return err
		}
		if err := c.ensureWithinHours(ctx, q, slot.Range()); err != nil {
			return err
		}

		if err := res.Reschedule(slot, qty, c.clock.Now(), c.factory.Policy); err != nil {
			return translateDomainErr(err)
		}

		if err := tx.Lock(ctx, shared.LockKeys(capacityScope(res), slot.Date())...); err != nil {
			return err
		}
		if err := checkConflict(ctx, tx, res, spec, &id); err != nil {
			return err
		}
		return tx.Reservations().Update(ctx, res)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.invalidate(ctx, oldDate)
	c.afterWrite(ctx, shared.JobBookingStatusChanged, res, res.Status(), slot.Date())
	return res, nil
}

func (c *bookingCommandsImpl) DeleteBooking(ctx context.Context, id int64) error {
	var date time.Time
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := tx.Reservations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		date = res.Slot().Date()
		return tx.Reservations().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	c.invalidate(ctx, date)
	return nil
}

func (c *bookingCommandsImpl) CreateBlackout(ctx context.Context, p BlackoutParams) (*blackout.BlackoutDate, error) {
	ve := errs.NewValidationError()
	if p.Title == "" {
		ve.Add("title", "title is required")
	}
	start, err := timerange.ParseDate(p.StartDate)
	if err != nil {
		ve.Add("startDate", "must be a YYYY-MM-DD date")
	}
	end, err := timerange.ParseDate(p.EndDate)
	if err != nil {
		ve.Add("endDate", "must be a YYYY-MM-DD date")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	b, err := blackout.New(p.Title, start, end, p.LocationIDs, p.EmployeeIDs)
	if err != nil {
		if errors.Is(err, blackout.ErrInvalidDateRange) {
			return nil, errs.Invalid("endDate", "must not be before startDate")
		}
		return nil, errs.Invalid("title", err.Error())
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, err := tx.Blackouts().Create(ctx, b)
		if err != nil {
			return err
		}
		b.WithID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range b.Dates() {
		c.invalidate(ctx, d)
	}
	return b, nil
}

func (c *bookingCommandsImpl) DeleteBlackout(ctx context.Context, id int64) error {
	var deleted *blackout.BlackoutDate
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		deleted, err = tx.Blackouts().Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	for _, d := range deleted.Dates() {
		c.invalidate(ctx, d)
	}
	return nil
}

func (c *bookingCommandsImpl) invalidate(ctx context.Context, date time.Time) {
	if err := c.invalidator.InvalidateDate(ctx, date); err != nil {
		c.logger.Warn("slot cache invalidation failed", "date", timerange.FormatDate(date), "error", err)
	}
}

// afterWrite runs once the transaction has committed. Queue failures never fail the request.
func (c *bookingCommandsImpl) afterWrite(ctx context.Context, jobType string, r *reservation.Reservation, prev reservation.Status, date time.Time) {
	c.invalidate(ctx, date)

	payload := shared.BookingJobPayload{
		ReservationID:     r.ID(),
		ConfirmationToken: r.ConfirmationToken(),
		Status:            r.Status().String(),
		BookingDate:       timerange.FormatDate(r.Slot().Date()),
		StartTime:         r.Slot().Range().Start.String(),
		EndTime:           r.Slot().Range().End.String(),
		UserEmail:         r.Contact().Email(),
		OccurredAt:        c.clock.Now(),
	}
	if prev != "" && prev != r.Status() {
		payload.PreviousStatus = prev.String()
	}

	job := shared.Job{Type: jobType, Key: strconv.FormatInt(r.ID(), 10), Payload: payload}
	if err := c.jobs.Enqueue(ctx, job); err != nil {
		c.logger.Error("failed to enqueue job", "type", jobType, "reservation_id", r.ID(), "error", err)
	}
}

func validateSlot(date, start, end string) (reservation.Slot, error) {
	ve := errs.NewValidationError()
	d, err := timerange.ParseDate(date)
	if err != nil {
		ve.Add("bookingDate", "must be a YYYY-MM-DD date")
	}
	s, err := timerange.ParseTimeOfDay(start)
	if err != nil {
		ve.Add("startTime", "must be a HH:MM time")
	}
	e, err := timerange.ParseTimeOfDay(end)
	if err != nil {
		ve.Add("endTime", "must be a HH:MM time")
	}
	if err := ve.OrNil(); err != nil {
		return reservation.Slot{}, err
	}
	slot, err := reservation.NewSlot(d, timerange.New(s, e))
	if err != nil {
		return reservation.Slot{}, errs.Invalid("endTime", "must be after startTime")
	}
	return slot, nil
}

func validateCreate(p CreateBookingParams) (reservation.Contact, reservation.Slot, error) {
	ve := errs.NewValidationError()

	if strings.TrimSpace(p.Name) == "" {
		ve.Add("userName", "name is required")
	}
	if !reservation.IsValidEmail(p.Email) {
		ve.Add("userEmail", "must be a valid email address")
	}
	if p.Quantity < 1 {
		ve.Add("quantity", "must be at least 1")
	}

	slot, err := validateSlot(p.Date, p.StartTime, p.EndTime)
	if err != nil {
		for field, msg := range errs.FieldErrors(err) {
			ve.Add(field, msg)
		}
	}
	if err := ve.OrNil(); err != nil {
		return reservation.Contact{}, reservation.Slot{}, err
	}

	contact, err := reservation.NewContact(p.Name, p.Email, p.Phone, p.Timezone)
	if err != nil {
		return reservation.Contact{}, reservation.Slot{}, errs.Invalid("userEmail", err.Error())
	}
	return contact, slot, nil
}

func translateDomainErr(err error) error {
	switch {
	case errors.Is(err, reservation.ErrLeadTimeNotMet):
		return errs.Invalid("startTime", "bookings must be made further in advance")
	case errors.Is(err, reservation.ErrInvalidQuantity):
		return errs.Invalid("quantity", "must be at least 1")
	case errors.Is(err, reservation.ErrReservationCancelled):
		return errs.Invalid("status", "reservation is already cancelled")
	case errors.Is(err, reservation.ErrInvalidTransition):
		return errs.Invalid("status", "status change is not allowed")
	case errors.Is(err, reservation.ErrCancellationWindow):
		return errs.Invalid("status", fmt.Sprintf("cancellation is no longer possible: %v", err))
	default:
		return err
	}
}
