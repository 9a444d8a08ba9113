//go:build unit

package shared_test

import (
	"testing"

	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/ptr"
	"booking-engine/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
)

func TestLockKeys(t *testing.T) {
	date := timerange.MustParseDate("2024-01-01")

	cases := []struct {
		name string
		pool scheduling.Scope
		want []string
	}{
		{
			name: "success: variation pool ignores the employee",
			pool: scheduling.PoolOf(ptr.To(int64(3)), ptr.To(int64(7))),
			want: []string{"variation:3:2024-01-01"},
		},
		{
			name: "success: employee pool without a variation",
			pool: scheduling.PoolOf(nil, ptr.To(int64(7))),
			want: []string{"employee:7:2024-01-01"},
		},
		{
			name: "success: unscoped bookings share the date key",
			pool: scheduling.PoolOf(nil, nil),
			want: []string{"date:2024-01-01"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shared.LockKeys(tc.pool, date))
		})
	}
}
