package repository

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/reservation"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createReservationSQL = `
INSERT INTO reservations (
    user_name, user_email, user_phone, user_timezone, booking_date, start_time, end_time,
    status, quantity, variation_id, service_id, employee_id, location_id,
    source_kind, source_id, source_handle, notes, confirmation_token, notification_sent,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
RETURNING id`

const updateReservationSQL = `
UPDATE reservations SET
    booking_date = $2, start_time = $3, end_time = $4, status = $5, quantity = $6,
    source_kind = $7, source_id = $8, source_handle = $9, notification_sent = $10, updated_at = $11
WHERE id = $1`

const deleteReservationSQL = `DELETE FROM reservations WHERE id = $1`

const (
	findReservationByIDSQL    = `SELECT ` + readstore.ReservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	findReservationByTokenSQL = `SELECT ` + readstore.ReservationColumns + ` FROM reservations WHERE confirmation_token = $1 FOR UPDATE`
)

type ReservationRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewReservationRepository(dbtx db.DBTX, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{db: dbtx, logger: logger}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) (int64, error) {
	c := res.Contact()
	scope := res.Scope()
	src := res.Source()
	rng := res.Slot().Range()

	var id int64
	err := r.db.QueryRow(ctx, createReservationSQL,
		c.Name(), c.Email(), pgconv.StringToPgtype(c.Phone()), c.Timezone(),
		pgconv.DateToPgtype(res.Slot().Date()),
		pgconv.TimeOfDayToPgtype(rng.Start), pgconv.TimeOfDayToPgtype(rng.End),
		res.Status().String(), res.Quantity(),
		pgconv.Int8PtrToPgtype(scope.VariationID),
		pgconv.Int8PtrToPgtype(scope.ServiceID),
		pgconv.Int8PtrToPgtype(scope.EmployeeID),
		pgconv.Int8PtrToPgtype(scope.LocationID),
		string(src.Kind), sourceIDToPgtype(src), src.Handle,
		pgconv.StringToPgtype(res.Notes().String()),
		res.ConfirmationToken(), res.NotificationSent(),
		pgconv.TimeToPgtype(res.CreatedAt()), pgconv.TimeToPgtype(res.UpdatedAt()),
	).Scan(&id)
	if err != nil {
		return 0, r.writeErr("failed to create reservation", err)
	}
	return id, nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	src := res.Source()
	rng := res.Slot().Range()

	tag, err := r.db.Exec(ctx, updateReservationSQL,
		res.ID(),
		pgconv.DateToPgtype(res.Slot().Date()),
		pgconv.TimeOfDayToPgtype(rng.Start), pgconv.TimeOfDayToPgtype(rng.End),
		res.Status().String(), res.Quantity(),
		string(src.Kind), sourceIDToPgtype(src), src.Handle,
		res.NotificationSent(),
		pgconv.TimeToPgtype(res.UpdatedAt()),
	)
	if err != nil {
		return r.writeErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", nil)
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteReservationSQL, id)
	if err != nil {
		return r.writeErr("failed to delete reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", nil)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return r.findOne(ctx, findReservationByIDSQL, id)
}

func (r *ReservationRepository) FindByToken(ctx context.Context, token string) (*reservation.Reservation, error) {
	return r.findOne(ctx, findReservationByTokenSQL, token)
}

func (r *ReservationRepository) findOne(ctx context.Context, sql string, arg any) (*reservation.Reservation, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query reservation", err)
	}
	res, err := pgx.CollectExactlyOneRow(rows, readstore.ScanReservation)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan reservation", err)
	}
	return res, nil
}

func (r *ReservationRepository) writeErr(msg string, err error) error {
	switch {
	case pgconv.IsUniqueViolation(err):
		return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, msg, err)
	case pgconv.IsForeignKeyViolation(err):
		return infra.WrapRepoErr(r.logger, infra.KindForeignKeyViolated, msg, err)
	case pgconv.IsExclusionViolation(err):
		return infra.WrapRepoErr(r.logger, infra.KindConflict, msg, err)
	default:
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, msg, err)
	}
}

func sourceIDToPgtype(src availability.Source) pgtype.Int8 {
	return pgtype.Int8{Int64: src.ID, Valid: src.Kind != ""}
}
