package repository

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
)

// Overlap is half-open: touching ranges do not count. A NULL scope id matches
// only rows where that column is NULL too, so pools never overlap.
const sumOverlappingQuantitySQL = `
SELECT COALESCE(SUM(quantity), 0)::int
FROM reservations
WHERE booking_date = $1
  AND status IN ('pending', 'confirmed')
  AND start_time < $3
  AND end_time > $2
  AND variation_id IS NOT DISTINCT FROM $4::bigint
  AND ($4::bigint IS NOT NULL OR employee_id IS NOT DISTINCT FROM $5::bigint)
  AND ($6::bigint IS NULL OR id <> $6)`

type CapacityCounter struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCapacityCounter(dbtx db.DBTX, logger *slog.Logger) *CapacityCounter {
	return &CapacityCounter{db: dbtx, logger: logger}
}

func (c *CapacityCounter) SumOverlappingQuantity(ctx context.Context, q scheduling.UsageQuery) (int, error) {
	window := clampToDay(q.Window)

	var sum int
	err := c.db.QueryRow(ctx, sumOverlappingQuantitySQL,
		pgconv.DateToPgtype(q.Date),
		pgconv.TimeOfDayToPgtype(window.Start),
		pgconv.TimeOfDayToPgtype(window.End),
		pgconv.Int8PtrToPgtype(q.Scope.VariationID),
		pgconv.Int8PtrToPgtype(q.Scope.EmployeeID),
		pgconv.Int8PtrToPgtype(q.ExcludeID),
	).Scan(&sum)
	if err != nil {
		return 0, infra.WrapRepoErr(c.logger, infra.KindDBFailure, "failed to sum overlapping reservations", err)
	}
	return sum, nil
}

// Buffers can push a window past midnight; TIME columns stop at 24:00.
func clampToDay(r timerange.Range) timerange.Range {
	start, end := max(r.Start, 0), min(r.End, timerange.TimeOfDay(timerange.MinutesPerDay))
	return timerange.New(start, end)
}
