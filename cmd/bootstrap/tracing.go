package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/tracing"
	"booking-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var TracingModule = fx.Module("tracing",
	fx.Invoke(StartTracing),
)

func StartTracing(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = tracing.Setup(ctx, cfg.Tracing)
			if err != nil {
				return err
			}
			if cfg.Tracing.Enabled {
				logger.Info("tracing enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}
