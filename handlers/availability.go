package handlers

import (
	"context"
	"net/http"

	guideRepo "wanderly/database/repository/guide"
	"wanderly/middleware"
	"wanderly/models"
	"wanderly/services/availability"
	"wanderly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	Guides       guideRepo.GuideRepository
	Availability availability.AvailabilityService
	Logger       *zap.Logger
}

type mutateAvailabilityRequest struct {
	Mode   availability.Mode       `json:"mode"`
	Ranges []models.DateRangeInput `json:"ranges"`
}

// resolveGuide maps the authenticated user onto their guide profile.
func (h *AvailabilityHandler) resolveGuide(ctx context.Context, c *gin.Context) (*models.Guide, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.Kind != models.ActorUser {
		return nil, models.ErrUnauthorized
	}
	return h.Guides.GetByUserID(ctx, actor.ID)
}

// GetMyAvailability handles GET /api/guides/me/availability.
func (h *AvailabilityHandler) GetMyAvailability(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	ctx := c.Request.Context()

	guide, err := h.resolveGuide(ctx, c)
	if err != nil {
		utils.RespondError(c, logger, err)
		return
	}

	ranges, err := h.Availability.Get(ctx, guide.ID)
	if err != nil {
		utils.RespondError(c, logger.With(zap.String("guideId", guide.ID)), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranges": nonNil(ranges)})
}

// UpdateMyAvailability handles PUT /api/guides/me/availability. Mode defaults
// to replace.
func (h *AvailabilityHandler) UpdateMyAvailability(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	ctx := c.Request.Context()

	guide, err := h.resolveGuide(ctx, c)
	if err != nil {
		utils.RespondError(c, logger, err)
		return
	}

	var req mutateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "ValidationFailed", "invalid input: "+err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = availability.ModeReplace
	}

	ranges, err := h.Availability.Mutate(ctx, guide.ID, req.Ranges, req.Mode)
	if err != nil {
		utils.RespondError(c, logger.With(zap.String("guideId", guide.ID)), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranges": nonNil(ranges)})
}

func nonNil(ranges []models.DateRange) []models.DateRange {
	if ranges == nil {
		return []models.DateRange{}
	}
	return ranges
}
