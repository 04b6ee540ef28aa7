package handlers

import (
	"net/http"
	"strings"

	"wanderly/services/booking"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	Reconciler *booking.Reconciler
	Logger     *zap.Logger
}

// ReconcileGuide handles POST /api/admin/guides/:guideID/reconcile.
func (h *AdminHandler) ReconcileGuide(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	guideID := strings.TrimSpace(c.Param("guideID"))
	if guideID == "" {
		utils.JSONError(c, http.StatusBadRequest, "ValidationFailed", "guideID is required")
		return
	}

	result, err := h.Reconciler.ReconcileGuide(c.Request.Context(), guideID)
	if err != nil {
		utils.RespondError(c, logger.With(zap.String("guideId", guideID)), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guideId":  result.GuideID,
		"ranges":   nonNil(result.Ranges),
		"replayed": result.Replayed,
	})
}
