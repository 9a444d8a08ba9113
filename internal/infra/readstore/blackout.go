package readstore

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const activeBlackoutsBetweenSQL = `
SELECT id, title, start_date, end_date, is_active, location_ids, employee_ids
FROM blackout_dates
WHERE is_active AND start_date <= $2 AND end_date >= $1
ORDER BY id`

type BlackoutReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewBlackoutReadStore(dbtx db.DBTX, logger *slog.Logger) *BlackoutReadStore {
	return &BlackoutReadStore{db: dbtx, logger: logger}
}

func (r *BlackoutReadStore) ActiveOn(ctx context.Context, date time.Time) ([]*blackout.BlackoutDate, error) {
	return r.ActiveBetween(ctx, date, date)
}

func (r *BlackoutReadStore) ActiveBetween(ctx context.Context, start, end time.Time) ([]*blackout.BlackoutDate, error) {
	rows, err := r.db.Query(ctx, activeBlackoutsBetweenSQL, pgconv.DateToPgtype(start), pgconv.DateToPgtype(end))
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query blackout dates", err)
	}

	list, err := pgx.CollectRows(rows, ScanBlackout)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan blackout dates", err)
	}
	return list, nil
}

// ScanBlackout reads the blackout_dates column list used across stores.
func ScanBlackout(row pgx.CollectableRow) (*blackout.BlackoutDate, error) {
	var (
		id          int64
		title       string
		start, end  pgtype.Date
		isActive    bool
		locationIDs []int64
		employeeIDs []int64
	)
	if err := row.Scan(&id, &title, &start, &end, &isActive, &locationIDs, &employeeIDs); err != nil {
		return nil, err
	}
	return blackout.Reconstruct(
		id,
		title,
		pgconv.DateFromPgtype(start),
		pgconv.DateFromPgtype(end),
		isActive,
		locationIDs,
		employeeIDs,
	), nil
}
