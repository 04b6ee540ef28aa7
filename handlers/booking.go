package handlers

import (
	"net/http"
	"strings"

	"wanderly/middleware"
	"wanderly/models"
	"wanderly/services/booking"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Engine   booking.ConfirmationEngine
	Fallback *booking.FallbackService
	Logger   *zap.Logger
}

type confirmBookingRequest struct {
	BookingID string `json:"bookingId"`
}

// ConfirmBooking handles POST /api/bookings/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	logger := getLogger(c, h.Logger)

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.RespondError(c, logger, models.ErrUnauthorized)
		return
	}

	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "ValidationFailed", "invalid input: "+err.Error())
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "ValidationFailed", "bookingId is required")
		return
	}

	result, err := h.Engine.ConfirmPayment(c.Request.Context(), booking.ConfirmRequest{
		BookingID: req.BookingID,
		Actor:     actor,
		Source:    "api",
	})
	if err != nil {
		utils.RespondError(c, logger.With(zap.String("bookingId", req.BookingID)), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":          result.Booking,
		"alreadyConfirmed": result.AlreadyConfirmed,
	})
}

// ConfirmFallback handles POST /api/bookings/confirm-fallback, called from the
// checkout success page.
func (h *BookingHandler) ConfirmFallback(c *gin.Context) {
	logger := getLogger(c, h.Logger)

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.RespondError(c, logger, models.ErrUnauthorized)
		return
	}

	var req booking.FallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "ValidationFailed", "invalid input: "+err.Error())
		return
	}

	result, err := h.Fallback.ConfirmFromRedirect(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondError(c, logger.With(zap.String("sessionId", req.SessionID)), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":          result.Booking,
		"alreadyConfirmed": result.AlreadyConfirmed,
	})
}
