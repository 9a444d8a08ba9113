package readstore

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const availabilitiesOnSQL = `
SELECT a.id, a.title, a.is_active, a.kind, a.day_of_week, a.start_time, a.end_time,
       a.source_kind, a.source_id, a.source_handle,
       ARRAY(SELECT av.variation_id FROM availability_variations av
             WHERE av.availability_id = a.id ORDER BY av.variation_id)::bigint[] AS variation_ids
FROM availabilities a
WHERE a.is_active
  AND ((a.kind = 'recurring' AND a.day_of_week = $1)
    OR (a.kind = 'event' AND EXISTS (
          SELECT 1 FROM availability_event_dates d
          WHERE d.availability_id = a.id AND d.event_date = $2)))
  AND ($3::text = '' OR a.source_kind = $3)
  AND ($4::bigint IS NULL OR a.source_id = $4)
  AND ($5::text = '' OR a.source_handle = $5)
ORDER BY a.id`

const eventDatesOnSQL = `
SELECT availability_id, event_date, start_time, end_time
FROM availability_event_dates
WHERE availability_id = ANY($1::bigint[]) AND event_date = $2
ORDER BY availability_id, start_time`

const schedulesOnSQL = `
SELECT id, title, employee_ids, days_of_week, start_time, end_time, is_active
FROM schedules
WHERE is_active
  AND $1::smallint = ANY(days_of_week)
  AND employee_ids && $2::bigint[]
ORDER BY id`

type DefinitionReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewDefinitionReadStore(dbtx db.DBTX, logger *slog.Logger) *DefinitionReadStore {
	return &DefinitionReadStore{db: dbtx, logger: logger}
}

type availabilityRow struct {
	id           int64
	title        string
	isActive     bool
	kind         string
	dayOfWeek    pgtype.Int2
	startTime    pgtype.Time
	endTime      pgtype.Time
	sourceKind   string
	sourceID     pgtype.Int8
	sourceHandle string
	variationIDs []int64
}

func (r *DefinitionReadStore) AvailabilitiesOn(ctx context.Context, date time.Time, source availability.SourceFilter) ([]*availability.Availability, error) {
	rows, err := r.db.Query(ctx, availabilitiesOnSQL,
		int16(date.Weekday()),
		pgconv.DateToPgtype(date),
		string(source.Kind),
		pgconv.Int8PtrToPgtype(source.ID),
		source.Handle,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query availabilities", err)
	}
	defer rows.Close()

	var scanned []availabilityRow
	var eventIDs []int64
	for rows.Next() {
		var row availabilityRow
		if err := rows.Scan(
			&row.id, &row.title, &row.isActive, &row.kind, &row.dayOfWeek, &row.startTime, &row.endTime,
			&row.sourceKind, &row.sourceID, &row.sourceHandle, &row.variationIDs,
		); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan availability", err)
		}
		if row.kind == string(availability.KindEvent) {
			eventIDs = append(eventIDs, row.id)
		}
		scanned = append(scanned, row)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate availabilities", err)
	}

	events, err := r.eventDatesOn(ctx, eventIDs, date)
	if err != nil {
		return nil, err
	}

	result := make([]*availability.Availability, 0, len(scanned))
	for _, row := range scanned {
		a, err := toAvailability(row, events[row.id])
		if err != nil {
			// A malformed row must not take down the whole day.
			r.logger.Warn("skipping malformed availability", "id", row.id, "error", err.Error())
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *DefinitionReadStore) eventDatesOn(ctx context.Context, ids []int64, date time.Time) (map[int64][]availability.EventDate, error) {
	out := map[int64][]availability.EventDate{}
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, eventDatesOnSQL, ids, pgconv.DateToPgtype(date))
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query event dates", err)
	}

	type eventRow struct {
		availabilityID int64
		date           pgtype.Date
		start, end     pgtype.Time
	}
	collected, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (eventRow, error) {
		var e eventRow
		err := row.Scan(&e.availabilityID, &e.date, &e.start, &e.end)
		return e, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan event dates", err)
	}

	for _, e := range collected {
		out[e.availabilityID] = append(out[e.availabilityID], availability.EventDate{
			Date:  pgconv.DateFromPgtype(e.date),
			Range: timerange.New(pgconv.TimeOfDayFromPgtype(e.start), pgconv.TimeOfDayFromPgtype(e.end)),
		})
	}
	return out, nil
}

func toAvailability(row availabilityRow, events []availability.EventDate) (*availability.Availability, error) {
	kind, err := availability.NewKind(row.kind)
	if err != nil {
		return nil, err
	}

	var source availability.Source
	if row.sourceKind != "" {
		sk, err := availability.NewSourceKind(row.sourceKind)
		if err != nil {
			return nil, err
		}
		source = availability.Source{Kind: sk, ID: row.sourceID.Int64, Handle: row.sourceHandle}
	}

	var window timerange.Range
	if row.startTime.Valid && row.endTime.Valid {
		window = timerange.New(pgconv.TimeOfDayFromPgtype(row.startTime), pgconv.TimeOfDayFromPgtype(row.endTime))
	}

	return availability.Reconstruct(
		row.id,
		row.title,
		row.isActive,
		kind,
		time.Weekday(row.dayOfWeek.Int16),
		window,
		events,
		source,
		row.variationIDs,
	), nil
}

func (r *DefinitionReadStore) SchedulesOn(ctx context.Context, date time.Time, employeeIDs []int64) ([]*availability.Schedule, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, schedulesOnSQL, int16(timerange.ISOWeekday(date)), employeeIDs)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query schedules", err)
	}

	schedules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*availability.Schedule, error) {
		var (
			id         int64
			title      string
			employees  []int64
			days       []int16
			start, end pgtype.Time
			isActive   bool
		)
		if err := row.Scan(&id, &title, &employees, &days, &start, &end, &isActive); err != nil {
			return nil, err
		}
		isoDays := make([]int, len(days))
		for i, d := range days {
			isoDays[i] = int(d)
		}
		window := timerange.New(pgconv.TimeOfDayFromPgtype(start), pgconv.TimeOfDayFromPgtype(end))
		return availability.ReconstructSchedule(id, title, employees, isoDays, window, isActive), nil
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan schedules", err)
	}
	return schedules, nil
}
