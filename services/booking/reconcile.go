package booking

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "wanderly/database/repository/booking"
	"wanderly/models"
	"wanderly/services/availability"

	"go.uber.org/zap"
)

type ReconcileResult struct {
	GuideID  string             `json:"guideId"`
	Replayed int                `json:"replayed"`
	Ranges   []models.DateRange `json:"ranges"`
}

// Reconciler replays paid bookings into a guide's calendar. It repairs
// blocks the engine failed to write; replaying an already-covered booking
// changes nothing because the merge absorbs it.
type Reconciler struct {
	Bookings     bookingRepo.BookingRepository
	Availability availability.AvailabilityService
	Logger       *zap.Logger
}

func (r *Reconciler) ReconcileGuide(ctx context.Context, guideID string) (*ReconcileResult, error) {
	paid, err := r.Bookings.ListPaidByGuide(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("%w: list paid bookings: %w", models.ErrUpstreamUnavailable, err)
	}

	if len(paid) == 0 {
		ranges, err := r.Availability.Get(ctx, guideID)
		if err != nil {
			return nil, err
		}
		return &ReconcileResult{GuideID: guideID, Ranges: ranges}, nil
	}

	busy := make([]models.DateRange, 0, len(paid))
	for i := range paid {
		busy = append(busy, paid[i].BusyRange())
	}
	ranges, err := r.Availability.AddBusyRanges(ctx, guideID, busy...)
	if err != nil {
		var rangeErr *availability.RangeError
		if errors.As(err, &rangeErr) {
			return nil, fmt.Errorf("booking %s has unusable dates: %w", paid[rangeErr.Index].ID, err)
		}
		return nil, err
	}

	if r.Logger != nil {
		r.Logger.Info("guide availability reconciled",
			zap.String("guideId", guideID),
			zap.Int("replayed", len(paid)),
			zap.Int("ranges", len(ranges)))
	}
	return &ReconcileResult{GuideID: guideID, Replayed: len(paid), Ranges: ranges}, nil
}
