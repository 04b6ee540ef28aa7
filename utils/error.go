package utils

import (
	"errors"
	"net/http"

	"wanderly/models"
	"wanderly/services/availability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Index   *int   `json:"index,omitempty"`
}

// AppError is an error resolved to its HTTP shape.
type AppError struct {
	Status  int
	Code    string
	Message string
	Index   *int
}

// MapError resolves err against the shared error taxonomy.
func MapError(err error) AppError {
	ae := AppError{Message: err.Error()}

	var rangeErr *availability.RangeError
	if errors.As(err, &rangeErr) {
		idx := rangeErr.Index
		ae.Index = &idx
	}

	switch {
	case errors.Is(err, models.ErrInvalidSignature):
		ae.Status, ae.Code = http.StatusBadRequest, "InvalidSignature"
	case errors.Is(err, models.ErrInvalidRange):
		ae.Status, ae.Code = http.StatusBadRequest, "InvalidRange"
	case errors.Is(err, models.ErrValidation):
		ae.Status, ae.Code = http.StatusBadRequest, "ValidationFailed"
	case errors.Is(err, models.ErrUnauthorized):
		ae.Status, ae.Code = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrPaymentNotCompleted):
		ae.Status, ae.Code = http.StatusPaymentRequired, "PaymentNotCompleted"
	case errors.Is(err, models.ErrForbidden):
		ae.Status, ae.Code = http.StatusForbidden, "Forbidden"
	case errors.Is(err, models.ErrNotFound):
		ae.Status, ae.Code = http.StatusNotFound, "NotFound"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		ae.Status, ae.Code = http.StatusServiceUnavailable, "UpstreamUnavailable"
		ae.Message = "A dependency is temporarily unavailable. Please retry."
	default:
		ae.Status, ae.Code = http.StatusInternalServerError, "InternalError"
		ae.Message = "An unexpected error occurred. Please try again later."
	}
	return ae
}

// RespondError maps err and writes it, logging server-side failures.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	ae := MapError(err)
	if ae.Status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", ae.Code), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("code", ae.Code), zap.Error(err))
	}
	c.AbortWithStatusJSON(ae.Status, ErrorResponse{Error: ae.Code, Message: ae.Message, Index: ae.Index})
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.FullPath()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "InternalError",
					Message: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}
