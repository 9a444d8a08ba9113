package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"sort"
	"time"

	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
	pgErrCodeLockNotAvailable     = "55P03"
)

// Keys are hashed into the 32-bit advisory lock space; collisions only over-serialize.
const advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

const lockTimeoutSQL = `SET LOCAL lock_timeout = '5s'`

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresUoW(pool *pgxpool.Pool, logger *slog.Logger) shared.UnitOfWork {
	return &PostgresUoW{
		pool:   pool,
		logger: logger,
	}
}

// ReadCommitted is enough: advisory locks serialize writers on the same capacity key
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{
			dbtx:   pgxTx,
			logger: u.logger,
			held:   map[string]bool{},
		}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		// Rollback on a fresh context so a cancelled request still releases its locks.
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if rollbackErr := pgxTx.Rollback(rbCtx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				u.logger.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}
		cancel()

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries && isRetryableError(err) {
				u.logger.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		u.logger.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx   db.DBTX
	logger *slog.Logger
	held   map[string]bool

	// Lazy-initialized repositories
	reservationRepo shared.ReservationRepository
	blackoutRepo    shared.BlackoutRepository
	capacity        scheduling.UsageCounter
}

// Lock takes transaction-scoped advisory locks in sorted order so two writers
// asking for overlapping key sets cannot deadlock.
func (t *pgTx) Lock(ctx context.Context, keys ...string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	if len(t.held) == 0 && len(sorted) > 0 {
		if _, err := t.dbtx.Exec(ctx, lockTimeoutSQL); err != nil {
			return infra.WrapRepoErr(t.logger, infra.KindDBFailure, "failed to set lock timeout", err)
		}
	}
	for _, key := range sorted {
		if t.held[key] {
			continue
		}
		if _, err := t.dbtx.Exec(ctx, advisoryLockSQL, key); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeLockNotAvailable {
				return infra.WrapRepoErr(t.logger, infra.KindLockTimeout, "capacity lock not available", err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return infra.WrapRepoErr(t.logger, infra.KindLockTimeout, "capacity lock wait cancelled", ctxErr)
			}
			return infra.WrapRepoErr(t.logger, infra.KindDBFailure, "failed to acquire capacity lock", err)
		}
		t.held[key] = true
	}
	return nil
}

func (t *pgTx) Reservations() shared.ReservationRepository {
	if t.reservationRepo == nil {
		t.reservationRepo = repository.NewReservationRepository(t.dbtx, t.logger)
	}
	return t.reservationRepo
}

func (t *pgTx) Blackouts() shared.BlackoutRepository {
	if t.blackoutRepo == nil {
		t.blackoutRepo = repository.NewBlackoutRepository(t.dbtx, t.logger)
	}
	return t.blackoutRepo
}

func (t *pgTx) Capacity() scheduling.UsageCounter {
	if t.capacity == nil {
		t.capacity = repository.NewCapacityCounter(t.dbtx, t.logger)
	}
	return t.capacity
}
