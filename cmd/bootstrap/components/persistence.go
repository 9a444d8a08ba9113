package components

import (
	"log/slog"

	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/infra/memstore"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/infra/uow"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewPersistence,
	),
)

// Ports bundles every persistence port so one store backs all of them.
type Ports struct {
	fx.Out

	Definitions queries.DefinitionReader
	Blackouts   queries.BlackoutReader
	Catalog     queries.CatalogReader
	Usage       scheduling.UsageCounter
	Views       queries.ReservationViewRepo
	UoW         shared.UnitOfWork
}

// NewPersistence uses Postgres when a pool exists and the in-memory store otherwise.
func NewPersistence(pool *pgxpool.Pool, logger *slog.Logger) Ports {
	if pool == nil {
		return memoryPorts(memstore.New())
	}
	return Ports{
		Definitions: readstore.NewDefinitionReadStore(pool, logger),
		Blackouts:   readstore.NewBlackoutReadStore(pool, logger),
		Catalog:     readstore.NewCatalogReadStore(pool, logger),
		Usage:       repository.NewCapacityCounter(pool, logger),
		Views:       readstore.NewReservationReadStore(pool, logger),
		UoW:         uow.NewPostgresUoW(pool, logger),
	}
}

func memoryPorts(store *memstore.Store) Ports {
	return Ports{
		Definitions: store,
		Blackouts:   store,
		Catalog:     store,
		Usage:       store,
		Views:       store,
		UoW:         memstore.NewUnitOfWork(store),
	}
}
