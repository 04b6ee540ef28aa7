package middleware

import (
	"net/http"

	"wanderly/models"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware guards admin routes with the configured static token.
// An empty token disables the admin surface entirely.
func JWTAuthAdminMiddleware(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Missing or invalid Authorization header")
			return
		}

		if !matchesStatic(tokenString, adminToken) {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Unauthorized admin access")
			return
		}

		c.Set("isAdmin", true)
		c.Set(ctxRole, RoleAdmin)
		c.Set(ctxActor, models.AdminActor(RoleAdmin))
		c.Next()
	}
}
