package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertJobSQL = `
INSERT INTO notification_jobs (job_type, job_key, payload)
VALUES ($1, $2, $3)`

const fetchPendingJobsSQL = `
SELECT id, job_type, job_key, payload
FROM notification_jobs
WHERE status = 'pending'
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED`

const markJobsSentSQL = `
UPDATE notification_jobs
SET status = 'sent', attempts = attempts + 1, processed_at = now()
WHERE id = ANY($1)`

const markJobFailedSQL = `
UPDATE notification_jobs
SET attempts = attempts + 1,
    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
WHERE id = $1`

const maxJobAttempts = 5

// OutboxQueue stores jobs in notification_jobs for the relay (or an external worker) to deliver.
type OutboxQueue struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOutboxQueue(dbtx db.DBTX, logger *slog.Logger) *OutboxQueue {
	return &OutboxQueue{db: dbtx, logger: logger}
}

func (q *OutboxQueue) Enqueue(ctx context.Context, job shared.Job) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return errs.Wrap(err, "marshal job payload")
	}
	if _, err := q.db.Exec(ctx, insertJobSQL, job.Type, job.Key, payload); err != nil {
		return infra.WrapRepoErr(q.logger, infra.KindDBFailure, "failed to insert notification job", err)
	}
	return nil
}

type outboxRecord struct {
	ID      int64
	Type    string
	Key     string
	Payload []byte
}

type RelayConfig struct {
	PollEvery time.Duration
	BatchSize int
}

// Relay moves pending outbox rows to Kafka.
type Relay struct {
	pool      *pgxpool.Pool
	writer    MessageWriter
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

func NewRelay(pool *pgxpool.Pool, writer MessageWriter, logger *slog.Logger, cfg RelayConfig) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		pool:      pool,
		writer:    writer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.publishBatch(ctx); err != nil {
				r.logger.Error("outbox publish failed", "error", err.Error())
			}
		}
	}
}

func (r *Relay) publishBatch(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errs.Wrap(err, "begin outbox batch")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, fetchPendingJobsSQL, r.batchSize)
	if err != nil {
		return errs.Wrap(err, "fetch pending jobs")
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[outboxRecord])
	if err != nil {
		return errs.Wrap(err, "scan pending jobs")
	}
	if len(records) == 0 {
		return tx.Commit(ctx)
	}

	var sent []int64
	for _, rec := range records {
		msg, err := toMessage(ctx, strconv.FormatInt(rec.ID, 10), rec.Type, rec.Key, json.RawMessage(rec.Payload))
		if err == nil {
			err = r.writer.WriteMessages(ctx, msg)
		}
		if err != nil {
			r.logger.Warn("outbox job delivery failed", "id", rec.ID, "type", rec.Type, "error", err.Error())
			if _, markErr := tx.Exec(ctx, markJobFailedSQL, rec.ID, maxJobAttempts); markErr != nil {
				return errs.Wrap(markErr, "mark job failed")
			}
			continue
		}
		sent = append(sent, rec.ID)
	}

	if len(sent) > 0 {
		if _, err := tx.Exec(ctx, markJobsSentSQL, sent); err != nil {
			return errs.Wrap(err, "mark jobs sent")
		}
	}
	return tx.Commit(ctx)
}
