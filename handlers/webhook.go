package handlers

import (
	"io"
	"net/http"

	"wanderly/services/payment"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = int64(65536)

type WebhookHandler struct {
	Processor *payment.WebhookProcessor
	Logger    *zap.Logger
}

// StripeWebhook handles POST /api/payments/webhook. The raw body is needed
// for signature verification, so it is never bound.
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	logger := getLogger(c, h.Logger)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "ValidationFailed", "unable to read request body")
		return
	}

	outcome, err := h.Processor.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.RespondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "status": outcome.Status})
}
