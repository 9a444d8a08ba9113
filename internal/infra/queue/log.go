package queue

import (
	"context"
	"log/slog"

	"booking-engine/internal/usecase/shared"
)

// LogQueue only records jobs in the log. Used when no broker is configured.
type LogQueue struct {
	logger *slog.Logger
}

func NewLogQueue(logger *slog.Logger) *LogQueue {
	return &LogQueue{logger: logger}
}

func (q *LogQueue) Enqueue(_ context.Context, job shared.Job) error {
	q.logger.Info("job enqueued", "type", job.Type, "key", job.Key, "payload", job.Payload)
	return nil
}
