//go:build unit

package middleware_test

import (
	"net/http"
	"testing"
	"time"

	"booking-engine/internal/domain/user"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/jwt"
	"booking-engine/internal/usecase"
	"booking-engine/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-that-is-long-enough"

func issue(t *testing.T, svc *jwt.Service, role user.Role) string {
	t.Helper()
	token, err := svc.GenerateToken("ops@example.com", role)
	require.NoError(t, err)
	return token
}

func newAdminRouter(svc *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := middleware.NewAuthMiddleware(usecase.NewTokenValidator(svc))

	admin := r.Group("/admin", auth.RequireAuth(), auth.RequireRoleAtLeast(user.RoleOperator))
	admin.GET("/bookings", func(c *gin.Context) {
		subject, _ := middleware.GetSubject(c)
		c.JSON(http.StatusOK, gin.H{"subject": subject})
	})
	admin.DELETE("/bookings/:id", auth.RequireRoleAtLeast(user.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	svc := jwt.NewService(secret, time.Hour)
	r := newAdminRouter(svc)

	t.Run("error: missing token", func(t *testing.T) {
		rec := httptest.PerformRequest(t, r, http.MethodGet, "/admin/bookings", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Access token required")
	})

	t.Run("error: token signed with another key", func(t *testing.T) {
		other := jwt.NewService("a-completely-different-secret-key", time.Hour)
		rec := httptest.PerformRequest(t, r, http.MethodGet, "/admin/bookings", nil, issue(t, other, user.RoleAdmin))
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Invalid or expired token")
	})

	t.Run("error: expired token", func(t *testing.T) {
		expired := jwt.NewService(secret, -time.Minute)
		rec := httptest.PerformRequest(t, r, http.MethodGet, "/admin/bookings", nil, issue(t, expired, user.RoleAdmin))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success: operator can read", func(t *testing.T) {
		rec := httptest.PerformRequest(t, r, http.MethodGet, "/admin/bookings", nil, issue(t, svc, user.RoleOperator))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"subject":"ops@example.com"}`, rec.Body.String())
	})
}

func TestRequireRoleAtLeast(t *testing.T) {
	svc := jwt.NewService(secret, time.Hour)
	r := newAdminRouter(svc)

	cases := []struct {
		name   string
		role   user.Role
		method string
		path   string
		want   int
	}{
		{"viewer cannot read admin lists", user.RoleViewer, http.MethodGet, "/admin/bookings", http.StatusForbidden},
		{"operator cannot delete", user.RoleOperator, http.MethodDelete, "/admin/bookings/1", http.StatusForbidden},
		{"admin can delete", user.RoleAdmin, http.MethodDelete, "/admin/bookings/1", http.StatusNoContent},
		{"admin can read", user.RoleAdmin, http.MethodGet, "/admin/bookings", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.PerformRequest(t, r, tc.method, tc.path, nil, issue(t, svc, tc.role))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
