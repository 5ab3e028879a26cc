package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"asset-register/internal/assets"
	"asset-register/internal/models"
)

func capabilityRequest(t *testing.T, role models.UserRole, loggedIn bool) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if loggedIn {
			c.Set(currentUserKey, models.User{Role: role})
		}
	})
	r.POST("/assets", RequireCapability(assets.CanManage), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/assets", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireCapability(t *testing.T) {
	require.Equal(t, http.StatusOK, capabilityRequest(t, models.RoleEncoder, true))
	require.Equal(t, http.StatusForbidden, capabilityRequest(t, models.RoleUser, true))
	require.Equal(t, http.StatusUnauthorized, capabilityRequest(t, models.RoleUser, false))
}
