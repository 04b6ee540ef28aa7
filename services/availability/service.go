package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	guideRepo "wanderly/database/repository/guide"
	"wanderly/models"

	"go.uber.org/zap"
)

// Mode selects how incoming ranges combine with stored ones.
type Mode string

const (
	ModeAdd     Mode = "add"
	ModeReplace Mode = "replace"
)

// AvailabilityService reads and mutates a guide's busy ranges.
type AvailabilityService interface {
	Get(ctx context.Context, guideID string) ([]models.DateRange, error)
	// Mutate validates every incoming range before touching storage; the
	// first invalid entry rejects the batch with a *RangeError.
	Mutate(ctx context.Context, guideID string, incoming []models.DateRangeInput, mode Mode) ([]models.DateRange, error)
	// AddBusyRanges folds already-normalized ranges into the stored list.
	AddBusyRanges(ctx context.Context, guideID string, ranges ...models.DateRange) ([]models.DateRange, error)
}

// DefaultAvailabilityService performs read-merge-write under a per-guide
// lock and writes with a version check, retrying on conflict.
type DefaultAvailabilityService struct {
	Repo       guideRepo.GuideRepository
	Locker     GuideLocker
	Logger     *zap.Logger
	MaxRetries int
	Timeout    time.Duration
}

func NewAvailabilityService(repo guideRepo.GuideRepository, locker GuideLocker, logger *zap.Logger) *DefaultAvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAvailabilityService{
		Repo:       repo,
		Locker:     locker,
		Logger:     logger,
		MaxRetries: 5,
		Timeout:    10 * time.Second,
	}
}

func (s *DefaultAvailabilityService) Get(ctx context.Context, guideID string) ([]models.DateRange, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.Repo.GetAvailability(ctx, guideID)
	if err != nil {
		return nil, upstream("load availability", err)
	}
	return MergeRanges(current.NotAvailable), nil
}

func (s *DefaultAvailabilityService) Mutate(ctx context.Context, guideID string, incoming []models.DateRangeInput, mode Mode) ([]models.DateRange, error) {
	if mode != ModeAdd && mode != ModeReplace {
		return nil, ErrInvalidMode
	}
	if len(incoming) == 0 {
		return nil, ErrEmptyRanges
	}
	ranges, err := ParseRanges(incoming)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, guideID, ranges, mode)
}

func (s *DefaultAvailabilityService) AddBusyRanges(ctx context.Context, guideID string, ranges ...models.DateRange) ([]models.DateRange, error) {
	if len(ranges) == 0 {
		return nil, ErrEmptyRanges
	}
	normalized := make([]models.DateRange, len(ranges))
	for i, r := range ranges {
		if r.Start.IsZero() || r.End.IsZero() {
			return nil, &RangeError{Index: i, Reason: "missing start or end"}
		}
		n := models.DateRange{Start: truncateDay(r.Start), End: truncateDay(r.End), Note: r.Note}
		if n.End.Before(n.Start) {
			return nil, &RangeError{Index: i, Reason: "end is before start"}
		}
		normalized[i] = n
	}
	return s.apply(ctx, guideID, normalized, ModeAdd)
}

func (s *DefaultAvailabilityService) apply(ctx context.Context, guideID string, incoming []models.DateRange, mode Mode) ([]models.DateRange, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, guideID)
		if err != nil {
			return nil, upstream("lock guide", err)
		}
		defer unlock()
	}

	attempts := s.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		current, err := s.Repo.GetAvailability(ctx, guideID)
		if err != nil {
			return nil, upstream("load availability", err)
		}

		var merged []models.DateRange
		switch mode {
		case ModeReplace:
			merged = MergeRanges(incoming)
		default:
			combined := make([]models.DateRange, 0, len(current.NotAvailable)+len(incoming))
			combined = append(combined, current.NotAvailable...)
			combined = append(combined, incoming...)
			merged = MergeRanges(combined)
		}

		err = s.Repo.ReplaceAvailability(ctx, guideID, merged, current.Version)
		if err == nil {
			s.Logger.Debug("availability updated",
				zap.String("guideId", guideID),
				zap.String("mode", string(mode)),
				zap.Int("ranges", len(merged)),
				zap.Int64("version", current.Version+1))
			return merged, nil
		}
		if !errors.Is(err, guideRepo.ErrVersionConflict) {
			return nil, upstream("persist availability", err)
		}
		s.Logger.Info("availability version conflict, retrying",
			zap.String("guideId", guideID),
			zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("%w: availability for guide %s changed on every one of %d attempts",
		models.ErrUpstreamUnavailable, guideID, attempts)
}

func (s *DefaultAvailabilityService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}
