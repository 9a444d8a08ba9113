//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"booking-engine/internal/domain/user"
	"booking-engine/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour)

	token, err := svc.GenerateToken("ops-1", user.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestService_ValidateToken(t *testing.T) {
	t.Run("署名キー不一致", func(t *testing.T) {
		token, err := jwt.NewService("other", time.Hour).GenerateToken("ops-1", user.RoleAdmin)
		require.NoError(t, err)

		_, err = jwt.NewService("secret", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("期限切れ", func(t *testing.T) {
		svc := jwt.NewService("secret", -time.Minute)
		token, err := svc.GenerateToken("ops-1", user.RoleAdmin)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("不正な文字列", func(t *testing.T) {
		_, err := jwt.NewService("secret", time.Hour).ValidateToken("not-a-token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
