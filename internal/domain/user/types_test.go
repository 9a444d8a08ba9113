//go:build unit

package user_test

import (
	"testing"

	"booking-engine/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	t.Run("有効なロール", func(t *testing.T) {
		for _, s := range []string{"viewer", "operator", "admin"} {
			role, err := user.NewRole(s)
			require.NoError(t, err)
			assert.Equal(t, s, role.String())
		}
	})

	t.Run("無効なロール", func(t *testing.T) {
		_, err := user.NewRole("root")
		assert.ErrorIs(t, err, user.ErrInvalidRole)
	})
}

func TestRole_AtLeast(t *testing.T) {
	cases := []struct {
		name string
		have user.Role
		min  user.Role
		want bool
	}{
		{"管理者はオペレーター権限を満たす", user.RoleAdmin, user.RoleOperator, true},
		{"同じロール", user.RoleOperator, user.RoleOperator, true},
		{"閲覧者はオペレーター権限を満たさない", user.RoleViewer, user.RoleOperator, false},
		{"未知のロール", user.Role("guest"), user.RoleViewer, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.have.AtLeast(tc.min))
		})
	}
}
