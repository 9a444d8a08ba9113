package readstore

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ReservationColumns = `
id, user_name, user_email, user_phone, user_timezone, booking_date, start_time, end_time,
status, quantity, variation_id, service_id, employee_id, location_id,
source_kind, source_id, source_handle, notes, confirmation_token, notification_sent,
created_at, updated_at`

const reservationViewByIDSQL = `SELECT ` + ReservationColumns + ` FROM reservations WHERE id = $1`

const reservationViewByTokenSQL = `SELECT ` + ReservationColumns + ` FROM reservations WHERE confirmation_token = $1`

const reservationsByDateSQL = `SELECT ` + ReservationColumns + ` FROM reservations
WHERE booking_date = $1 AND (start_time, id) > ($2::time, $3::bigint)
ORDER BY start_time, id
LIMIT $4`

const reservationsByDateFirstPageSQL = `SELECT ` + ReservationColumns + ` FROM reservations
WHERE booking_date = $1
ORDER BY start_time, id
LIMIT $2`

type ReservationReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewReservationReadStore(dbtx db.DBTX, logger *slog.Logger) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx, logger: logger}
}

func (r *ReservationReadStore) FindViewByID(ctx context.Context, id int64) (*queries.ReservationView, error) {
	return r.findOne(ctx, reservationViewByIDSQL, id)
}

func (r *ReservationReadStore) FindViewByToken(ctx context.Context, token string) (*queries.ReservationView, error) {
	return r.findOne(ctx, reservationViewByTokenSQL, token)
}

func (r *ReservationReadStore) findOne(ctx context.Context, sql string, arg any) (*queries.ReservationView, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query reservation", err)
	}
	res, err := pgx.CollectExactlyOneRow(rows, ScanReservation)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan reservation", err)
	}
	return queries.ViewOf(res), nil
}

// ListByDate pages by (start_time, id). A negative afterStart means the first page.
func (r *ReservationReadStore) ListByDate(ctx context.Context, date time.Time, afterStart timerange.TimeOfDay, afterID int64, limit int) ([]*queries.ReservationView, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if afterStart < 0 {
		rows, err = r.db.Query(ctx, reservationsByDateFirstPageSQL, pgconv.DateToPgtype(date), limit)
	} else {
		rows, err = r.db.Query(ctx, reservationsByDateSQL,
			pgconv.DateToPgtype(date), pgconv.TimeOfDayToPgtype(afterStart), afterID, limit)
	}
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list reservations", err)
	}

	list, err := pgx.CollectRows(rows, ScanReservation)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan reservations", err)
	}

	views := make([]*queries.ReservationView, len(list))
	for i, res := range list {
		views[i] = queries.ViewOf(res)
	}
	return views, nil
}

// ScanReservation reads the ReservationColumns list.
func ScanReservation(row pgx.CollectableRow) (*reservation.Reservation, error) {
	var (
		id                   int64
		name, email          string
		phone                pgtype.Text
		timezone             string
		date                 pgtype.Date
		start, end           pgtype.Time
		status               string
		quantity             int
		variationID          pgtype.Int8
		serviceID            pgtype.Int8
		employeeID           pgtype.Int8
		locationID           pgtype.Int8
		sourceKind           string
		sourceID             pgtype.Int8
		sourceHandle         string
		notes                pgtype.Text
		token                string
		notificationSent     bool
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &name, &email, &phone, &timezone, &date, &start, &end,
		&status, &quantity, &variationID, &serviceID, &employeeID, &locationID,
		&sourceKind, &sourceID, &sourceHandle, &notes, &token, &notificationSent,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	st, err := reservation.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	slot, err := reservation.NewSlot(
		pgconv.DateFromPgtype(date),
		timerange.New(pgconv.TimeOfDayFromPgtype(start), pgconv.TimeOfDayFromPgtype(end)),
	)
	if err != nil {
		return nil, err
	}

	return reservation.ReconstructReservation(
		id,
		reservation.ReconstructContact(name, email, pgconv.StringFromPgtype(phone), timezone),
		slot,
		st,
		quantity,
		reservation.Scope{
			VariationID: pgconv.Int8PtrFromPgtype(variationID),
			ServiceID:   pgconv.Int8PtrFromPgtype(serviceID),
			EmployeeID:  pgconv.Int8PtrFromPgtype(employeeID),
			LocationID:  pgconv.Int8PtrFromPgtype(locationID),
		},
		availability.Source{Kind: availability.SourceKind(sourceKind), ID: sourceID.Int64, Handle: sourceHandle},
		reservation.NewNote(pgconv.StringFromPgtype(notes)),
		token,
		notificationSent,
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}
