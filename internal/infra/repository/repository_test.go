//go:build unit

package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/ptr"
	"booking-engine/tests/common/builder"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgconn.CommandTag), called.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	called := m.Called(ctx, sql, args)
	rows, _ := called.Get(0).(pgx.Rows)
	return rows, called.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

// fakeRow scans a fixed value or fails with err.
type fakeRow struct {
	value any
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *int64:
		*d = r.value.(int64)
	case *int:
		*d = r.value.(int)
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReservationRepository_Create(t *testing.T) {
	cases := []struct {
		name     string
		row      fakeRow
		wantID   int64
		wantKind infra.RepositoryErrorKind
		conflict bool
	}{
		{name: "success: returns generated id", row: fakeRow{value: int64(42)}, wantID: 42},
		{
			name:     "error: duplicate confirmation token is a conflict",
			row:      fakeRow{err: &pgconn.PgError{Code: "23505"}},
			wantKind: infra.KindDuplicateKey,
			conflict: true,
		},
		{
			name:     "error: exclusion constraint is a conflict",
			row:      fakeRow{err: &pgconn.PgError{Code: "23P01"}},
			wantKind: infra.KindConflict,
			conflict: true,
		},
		{
			name:     "error: unknown variation is a foreign key violation",
			row:      fakeRow{err: &pgconn.PgError{Code: "23503"}},
			wantKind: infra.KindForeignKeyViolated,
		},
		{
			name:     "error: other failures are db failures",
			row:      fakeRow{err: errors.New("connection reset")},
			wantKind: infra.KindDBFailure,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dbtx := new(MockDBTX)
			dbtx.On("QueryRow", mock.Anything, createReservationSQL, mock.Anything).Return(tc.row)
			repo := NewReservationRepository(dbtx, quietLogger())

			id, err := repo.Create(context.Background(), builder.NewReservationBuilder().BuildStored())

			if tc.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.wantID, id)
				return
			}
			var repoErr infra.RepositoryError
			require.ErrorAs(t, err, &repoErr)
			assert.Equal(t, tc.wantKind, repoErr.Kind)
			assert.Equal(t, tc.conflict, errs.IsConflict(err))
			dbtx.AssertExpectations(t)
		})
	}
}

func TestReservationRepository_Delete(t *testing.T) {
	t.Run("success: one row removed", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("Exec", mock.Anything, deleteReservationSQL, []any{int64(7)}).Return(pgconn.NewCommandTag("DELETE 1"), nil)

		require.NoError(t, NewReservationRepository(dbtx, quietLogger()).Delete(context.Background(), 7))
		dbtx.AssertExpectations(t)
	})

	t.Run("error: missing row is not found", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("Exec", mock.Anything, deleteReservationSQL, []any{int64(7)}).Return(pgconn.NewCommandTag("DELETE 0"), nil)

		err := NewReservationRepository(dbtx, quietLogger()).Delete(context.Background(), 7)
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestReservationRepository_Update(t *testing.T) {
	t.Run("error: vanished row is not found", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("Exec", mock.Anything, updateReservationSQL, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
		res := builder.NewReservationBuilder().BuildStored()

		err := NewReservationRepository(dbtx, quietLogger()).Update(context.Background(), res)
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestCapacityCounter_SumOverlappingQuantity(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success: scans the aggregate", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, sumOverlappingQuantitySQL, mock.Anything).Return(fakeRow{value: 3})

		sum, err := NewCapacityCounter(dbtx, quietLogger()).SumOverlappingQuantity(context.Background(), scheduling.UsageQuery{
			Date:   date,
			Scope:  scheduling.Scope{VariationID: ptr.To(int64(10))},
			Window: timerange.New(timerange.NewTimeOfDay(9, 0), timerange.NewTimeOfDay(10, 0)),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, sum)
	})

	t.Run("success: variation pool sends no employee filter", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, sumOverlappingQuantitySQL, mock.MatchedBy(func(args []any) bool {
			return args[3] == pgtype.Int8{Int64: 10, Valid: true} && args[4] == pgtype.Int8{}
		})).Return(fakeRow{value: 1})

		_, err := NewCapacityCounter(dbtx, quietLogger()).SumOverlappingQuantity(context.Background(), scheduling.UsageQuery{
			Date:   date,
			Scope:  scheduling.PoolOf(ptr.To(int64(10)), ptr.To(int64(7))),
			Window: timerange.New(timerange.NewTimeOfDay(9, 0), timerange.NewTimeOfDay(10, 0)),
		})
		require.NoError(t, err)
		dbtx.AssertExpectations(t)
	})

	t.Run("error: query failure is wrapped", func(t *testing.T) {
		dbtx := new(MockDBTX)
		dbtx.On("QueryRow", mock.Anything, sumOverlappingQuantitySQL, mock.Anything).Return(fakeRow{err: errors.New("timeout")})

		_, err := NewCapacityCounter(dbtx, quietLogger()).SumOverlappingQuantity(context.Background(), scheduling.UsageQuery{Date: date})
		var repoErr infra.RepositoryError
		require.ErrorAs(t, err, &repoErr)
		assert.Equal(t, infra.KindDBFailure, repoErr.Kind)
	})
}

func TestClampToDay(t *testing.T) {
	cases := []struct {
		name string
		in   timerange.Range
		want timerange.Range
	}{
		{name: "success: inside the day is unchanged", in: timerange.New(540, 600), want: timerange.New(540, 600)},
		{name: "success: before-buffer past midnight clamps to 00:00", in: timerange.New(-15, 30), want: timerange.New(0, 30)},
		{name: "success: after-buffer past midnight clamps to 24:00", in: timerange.New(1410, 1455), want: timerange.New(1410, 1440)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clampToDay(tc.in))
		})
	}
}
