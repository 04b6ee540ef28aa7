package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"wanderly/models"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
	ctxActor  = "actor"

	RoleAdmin = "admin"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func matchesStatic(token, static string) bool {
	return static != "" && subtle.ConstantTimeCompare([]byte(token), []byte(static)) == 1
}

// JWTAuthMiddleware accepts HS256 bearer tokens and, when adminToken is set,
// the static admin token. It stores the resolved actor in the context.
func JWTAuthMiddleware(secret, adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Missing or invalid Authorization header")
			return
		}

		if matchesStatic(tokenString, adminToken) {
			c.Set(ctxRole, RoleAdmin)
			c.Set(ctxActor, models.AdminActor(RoleAdmin))
			c.Next()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Invalid token")
			return
		}

		actor := models.UserActor(claims.Subject)
		if claims.Role == RoleAdmin {
			actor = models.AdminActor(claims.Subject)
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxActor, actor)
		c.Next()
	}
}

// RequireUser rejects requests whose actor is not an end user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok || actor.Kind != models.ActorUser || actor.ID == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "User authentication required")
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the actor set by the auth middleware.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(ctxActor)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
