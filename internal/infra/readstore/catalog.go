package readstore

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/catalog"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgtype"
)

const variationByIDSQL = `
SELECT id, title, description, slot_duration_minutes, buffer_minutes, max_capacity,
       allow_quantity_selection, is_active, service_id
FROM booking_variations
WHERE id = $1`

const serviceByIDSQL = `
SELECT id, title, duration_minutes, buffer_before_minutes, buffer_after_minutes, employee_ids, is_active
FROM services
WHERE id = $1`

type CatalogReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCatalogReadStore(dbtx db.DBTX, logger *slog.Logger) *CatalogReadStore {
	return &CatalogReadStore{db: dbtx, logger: logger}
}

func (r *CatalogReadStore) VariationByID(ctx context.Context, id int64) (*catalog.Variation, error) {
	var (
		p         catalog.VariationParams
		rowID     int64
		duration  pgtype.Int4
		buffer    pgtype.Int4
		serviceID pgtype.Int8
	)
	err := r.db.QueryRow(ctx, variationByIDSQL, id).Scan(
		&rowID, &p.Title, &p.Description, &duration, &buffer, &p.MaxCapacity,
		&p.AllowQuantitySelection, &p.IsActive, &serviceID,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "variation not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find variation by ID", err)
	}

	p.SlotDurationMinutes = int4Ptr(duration)
	p.BufferMinutes = int4Ptr(buffer)
	p.ServiceID = pgconv.Int8PtrFromPgtype(serviceID)

	return catalog.NewVariation(rowID, p)
}

func (r *CatalogReadStore) ServiceByID(ctx context.Context, id int64) (*catalog.Service, error) {
	var (
		p     catalog.ServiceParams
		rowID int64
	)
	err := r.db.QueryRow(ctx, serviceByIDSQL, id).Scan(
		&rowID, &p.Title, &p.DurationMinutes, &p.BufferBeforeMinutes, &p.BufferAfterMinutes,
		&p.EmployeeIDs, &p.IsActive,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "service not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find service by ID", err)
	}

	return catalog.NewService(rowID, p)
}

func int4Ptr(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}
