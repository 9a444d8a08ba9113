package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/handler"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

const StoreMemory = "memory"

var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
	),
)

type DBResult struct {
	fx.Out

	Pool  *pgxpool.Pool
	Ready handler.ReadyCheck `group:"ready"`
}

// NewDB returns a nil pool when bookings are kept in memory.
func NewDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (DBResult, error) {
	if cfg.Booking.Store == StoreMemory {
		logger.Warn("using in-memory booking store; data is lost on restart")
		return DBResult{Ready: handler.ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }}}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return DBResult{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return DBResult{Pool: pool, Ready: handler.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)}}, nil
}
