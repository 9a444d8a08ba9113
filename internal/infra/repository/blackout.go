package repository

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
)

const createBlackoutSQL = `
INSERT INTO blackout_dates (title, start_date, end_date, is_active, location_ids, employee_ids)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

const deleteBlackoutSQL = `
DELETE FROM blackout_dates WHERE id = $1
RETURNING id, title, start_date, end_date, is_active, location_ids, employee_ids`

type BlackoutRepository struct {
	db     db.DBTX
	logger *slog.Logger
	reads  *readstore.BlackoutReadStore
}

func NewBlackoutRepository(dbtx db.DBTX, logger *slog.Logger) *BlackoutRepository {
	return &BlackoutRepository{
		db:     dbtx,
		logger: logger,
		reads:  readstore.NewBlackoutReadStore(dbtx, logger),
	}
}

func (r *BlackoutRepository) Create(ctx context.Context, b *blackout.BlackoutDate) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, createBlackoutSQL,
		b.Title(),
		pgconv.DateToPgtype(b.StartDate()),
		pgconv.DateToPgtype(b.EndDate()),
		b.IsActive(),
		nonNil(b.LocationIDs()),
		nonNil(b.EmployeeIDs()),
	).Scan(&id)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create blackout date", err)
	}
	return id, nil
}

func (r *BlackoutRepository) Delete(ctx context.Context, id int64) (*blackout.BlackoutDate, error) {
	rows, err := r.db.Query(ctx, deleteBlackoutSQL, id)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete blackout date", err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, readstore.ScanBlackout)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "blackout date not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan deleted blackout date", err)
	}
	return b, nil
}

// ActiveOn reads through the transaction so a blackout created earlier in it is visible.
func (r *BlackoutRepository) ActiveOn(ctx context.Context, date time.Time) ([]*blackout.BlackoutDate, error) {
	return r.reads.ActiveOn(ctx, date)
}

// NULL arrays would break the NOT NULL columns.
func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
