package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "wanderly/database/repository/booking"
	"wanderly/models"
	"wanderly/services/availability"
	"wanderly/services/notification"

	"go.uber.org/zap"
)

// ConfirmRequest is the single contract every payment trigger converges on.
type ConfirmRequest struct {
	BookingID string
	Actor     models.Actor
	// PaymentIntentID is recorded on the booking when the trigger knows it.
	PaymentIntentID string
	// Source names the trigger for logging ("api", "webhook", "fallback").
	Source string
}

type ConfirmationResult struct {
	Booking *models.Booking `json:"booking"`
	// AlreadyConfirmed is true when an earlier call performed the transition
	// and this call had no effect.
	AlreadyConfirmed bool `json:"alreadyConfirmed"`
	// CalendarBlocked reports whether this call folded the booking into the
	// guide's availability. False for no-op calls and for best-effort failures.
	CalendarBlocked bool `json:"calendarBlocked"`
}

// ConfirmationEngine transitions a booking to paid exactly once and blocks
// its dates on the guide's calendar.
type ConfirmationEngine interface {
	ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmationResult, error)
}

// DefaultConfirmationEngine is the production engine. The paid transition is
// a conditional write in the booking store, so concurrent triggers for the
// same booking race only there and exactly one of them wins.
type DefaultConfirmationEngine struct {
	Bookings     bookingRepo.BookingRepository
	Availability availability.AvailabilityService
	Notifier     notification.Dispatcher
	Logger       *zap.Logger
	// Timeout bounds each external call the engine makes.
	Timeout time.Duration
	Now     func() time.Time
}

func NewConfirmationEngine(
	bookings bookingRepo.BookingRepository,
	avail availability.AvailabilityService,
	notifier notification.Dispatcher,
	logger *zap.Logger,
	timeout time.Duration,
) (*DefaultConfirmationEngine, error) {
	if bookings == nil || avail == nil {
		return nil, fmt.Errorf("confirmation engine initialization error: booking store or availability service is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notification.LogDispatcher{Logger: logger}
	}
	return &DefaultConfirmationEngine{
		Bookings:     bookings,
		Availability: avail,
		Notifier:     notifier,
		Logger:       logger,
		Timeout:      timeout,
		Now:          time.Now,
	}, nil
}

func (e *DefaultConfirmationEngine) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmationResult, error) {
	if req.BookingID == "" {
		return nil, ErrMissingBookingID
	}
	log := e.Logger.With(
		zap.String("bookingId", req.BookingID),
		zap.String("source", req.Source),
		zap.String("actorKind", string(req.Actor.Kind)),
	)

	current, err := e.loadBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(current, req.Actor); err != nil {
		log.Warn("confirmation refused", zap.String("actorId", req.Actor.ID))
		return nil, err
	}
	if current.IsPaid() {
		log.Debug("booking already paid; nothing to do")
		return &ConfirmationResult{Booking: current, AlreadyConfirmed: true}, nil
	}

	updated, transitioned, err := e.markPaid(ctx, req)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		// Another trigger won the race between our read and the write.
		log.Info("booking was confirmed concurrently by another trigger")
		return &ConfirmationResult{Booking: updated, AlreadyConfirmed: true}, nil
	}
	log.Info("booking payment confirmed",
		zap.String("guideId", updated.GuideID),
		zap.Float64("totalPrice", updated.TotalPrice))

	result := &ConfirmationResult{Booking: updated}
	result.CalendarBlocked = e.blockCalendar(ctx, updated, log)
	e.notify(ctx, updated, log)
	return result, nil
}

func authorize(b *models.Booking, actor models.Actor) error {
	switch actor.Kind {
	case models.ActorSystem, models.ActorAdmin:
		return nil
	case models.ActorUser:
		if actor.ID != "" && actor.ID == b.UserID {
			return nil
		}
		return &ForbiddenError{BookingID: b.ID, ActorID: actor.ID}
	case "":
		return ErrMissingActor
	}
	return &ForbiddenError{BookingID: b.ID, ActorID: actor.ID}
}

func (e *DefaultConfirmationEngine) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	b, err := e.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load booking %s: %w", models.ErrUpstreamUnavailable, bookingID, err)
	}
	return b, nil
}

func (e *DefaultConfirmationEngine) markPaid(ctx context.Context, req ConfirmRequest) (*models.Booking, bool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	b, transitioned, err := e.Bookings.MarkPaid(ctx, req.BookingID, req.PaymentIntentID, e.now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: mark booking %s paid: %w", models.ErrUpstreamUnavailable, req.BookingID, err)
	}
	return b, transitioned, nil
}

// blockCalendar never fails the confirmation: the payment is already
// recorded, and a missed block is repaired by ReconcileGuide.
func (e *DefaultConfirmationEngine) blockCalendar(ctx context.Context, b *models.Booking, log *zap.Logger) bool {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if _, err := e.Availability.AddBusyRanges(ctx, b.GuideID, b.BusyRange()); err != nil {
		log.Error("failed to block guide availability for confirmed booking",
			zap.String("guideId", b.GuideID),
			zap.Error(err))
		return false
	}
	return true
}

func (e *DefaultConfirmationEngine) notify(ctx context.Context, b *models.Booking, log *zap.Logger) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.Notifier.BookingConfirmed(ctx, b); err != nil {
		log.Error("failed to dispatch booking confirmation notification", zap.Error(err))
	}
}

func (e *DefaultConfirmationEngine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Timeout)
}

func (e *DefaultConfirmationEngine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
