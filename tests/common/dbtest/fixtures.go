//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by *pgxpool.Pool and pgx.Tx.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type VariationSeed struct {
	Title                  string
	SlotDurationMinutes    *int
	BufferMinutes          *int
	MaxCapacity            int
	AllowQuantitySelection bool
	ServiceID              *int64
}

func CreateVariation(t *testing.T, db DBLike, v VariationSeed) int64 {
	t.Helper()

	if v.MaxCapacity == 0 {
		v.MaxCapacity = 1
	}
	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO booking_variations (title, slot_duration_minutes, buffer_minutes, max_capacity, allow_quantity_selection, service_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		v.Title, v.SlotDurationMinutes, v.BufferMinutes, v.MaxCapacity, v.AllowQuantitySelection, v.ServiceID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateRecurringAvailability inserts a weekly window and links it to the given variations.
func CreateRecurringAvailability(t *testing.T, db DBLike, day time.Weekday, start, end string, variationIDs ...int64) int64 {
	t.Helper()

	ctx := context.Background()
	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO availabilities (title, kind, day_of_week, start_time, end_time, source_kind, source_id, source_handle)
		VALUES ($1, 'recurring', $2, $3, $4, 'entry', 10, 'massage')
		RETURNING id`,
		fmt.Sprintf("%s %s-%s", day, start, end), int(day), start, end,
	).Scan(&id)
	require.NoError(t, err)

	for _, vid := range variationIDs {
		_, err := db.Exec(ctx, "INSERT INTO availability_variations (availability_id, variation_id) VALUES ($1, $2)", id, vid)
		require.NoError(t, err)
	}
	return id
}

func CreateBlackout(t *testing.T, db DBLike, title, startDate, endDate string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(),
		"INSERT INTO blackout_dates (title, start_date, end_date) VALUES ($1, $2, $3) RETURNING id",
		title, startDate, endDate,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func CountPendingJobs(t *testing.T, db DBLike, jobType string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM notification_jobs WHERE job_type = $1 AND status = 'pending'", jobType,
	).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}
	return nil
}
