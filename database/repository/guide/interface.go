// File: database/repository/guide/interface.go
package guideRepo

import (
	"context"
	"errors"
	"fmt"

	"wanderly/models"
)

var (
	ErrGuideNotFound = fmt.Errorf("guide %w", models.ErrNotFound)
	// ErrVersionConflict means the availability list changed since it was read.
	ErrVersionConflict = errors.New("availability version conflict")
)

// GuideRepository persists a guide's busy ranges. Writes replace the whole
// list and only succeed against the version the caller read.
type GuideRepository interface {
	GetByID(ctx context.Context, guideID string) (*models.Guide, error)
	GetByUserID(ctx context.Context, userID string) (*models.Guide, error)
	GetAvailability(ctx context.Context, guideID string) (*models.GuideAvailability, error)
	ReplaceAvailability(ctx context.Context, guideID string, ranges []models.DateRange, expectedVersion int64) error
}
