package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"asset-register/internal/auth"
	"asset-register/internal/database"
	"asset-register/internal/models"
)

const currentUserKey = "CurrentUser"

// InjectUser resolves the acting user from the session cookie first, then
// from a bearer token, and stashes it in the request context. Requests
// without either proceed unauthenticated; RequireAuth decides per route.
func InjectUser(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if uidRaw := sess.Get("user_id"); uidRaw != nil {
			if uid, ok := uidRaw.(uint); ok && uid > 0 {
				var user models.User
				if err := database.DB.First(&user, uid).Error; err == nil {
					c.Set(currentUserKey, user)
					c.Next()
					return
				}
			}
		}

		if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			if claims, err := auth.ValidateToken(jwtSecret, token); err == nil {
				var user models.User
				if err := database.DB.First(&user, claims.UserID).Error; err == nil {
					c.Set(currentUserKey, user)
				}
			}
		}

		c.Next()
	}
}

// CurrentUser returns the user InjectUser resolved, if any.
func CurrentUser(c *gin.Context) (models.User, bool) {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(models.User); ok {
			return u, true
		}
	}
	return models.User{}, false
}
