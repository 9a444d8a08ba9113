package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"booking-engine/internal/infra/queue"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

const (
	QueueKafka  = "kafka"
	QueueOutbox = "outbox"
	QueueLog    = "log"
)

var QueueModule = fx.Module("queue",
	fx.Provide(
		NewJobQueue,
	),
)

// NewJobQueue picks the job sink. The outbox driver also starts the relay
// when Kafka brokers are configured.
func NewJobQueue(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (shared.JobQueue, error) {
	brokers := queue.SplitBrokers(cfg.Kafka.Brokers)

	switch cfg.Queue.Driver {
	case QueueKafka:
		if len(brokers) == 0 {
			return nil, errors.New("QUEUE_DRIVER=kafka requires KAFKA_BROKERS")
		}
		w := queue.NewKafkaWriter(brokers, cfg.Kafka.Topic)
		lc.Append(fx.Hook{OnStop: func(_ context.Context) error { return w.Close() }})
		return queue.NewKafkaQueue(w, logger), nil

	case QueueOutbox:
		if pool == nil {
			return nil, errors.New("QUEUE_DRIVER=outbox requires the postgres booking store")
		}
		if len(brokers) > 0 {
			startRelay(lc, cfg, pool, logger, brokers)
		} else {
			logger.Info("outbox relay disabled; pending jobs stay in notification_jobs")
		}
		return queue.NewOutboxQueue(pool, logger), nil

	case QueueLog:
		return queue.NewLogQueue(logger), nil

	default:
		return nil, errors.New("unknown QUEUE_DRIVER: " + cfg.Queue.Driver)
	}
}

func startRelay(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger, brokers []string) {
	w := queue.NewKafkaWriter(brokers, cfg.Kafka.Topic)
	relay := queue.NewRelay(pool, w, logger, queue.RelayConfig{
		PollEvery: cfg.Queue.PollEvery,
		BatchSize: cfg.Queue.BatchSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				relay.Run(ctx)
			}()
			logger.Info("outbox relay started", "topic", cfg.Kafka.Topic)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return w.Close()
		},
	})
}
