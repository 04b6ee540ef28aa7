package handlers

import (
	"wanderly/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request-scoped logger from the gin context.
func getLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if fallback == nil {
		fallback = zap.L()
	}
	return middleware.LoggerFromContext(c, fallback)
}
