package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "wanderly/database/repository/booking"
	tourRepo "wanderly/database/repository/tour"
	"wanderly/models"
	"wanderly/services/availability"

	"go.uber.org/zap"
)

// CheckoutVerifier asks the payment provider whether a hosted checkout was paid.
type CheckoutVerifier interface {
	LookupCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSessionInfo, error)
}

// FallbackRequest is what the post-redirect success page sends. Either
// BookingID (or a SessionID that resolves to one) or the raw booking fields
// must be present.
type FallbackRequest struct {
	BookingID string `json:"bookingId"`
	SessionID string `json:"sessionId"`
	TourID    string `json:"tourId"`
	StartDate any    `json:"startDate"`
	EndDate   any    `json:"endDate"`
	Travelers int    `json:"travelers"`
}

// FallbackService confirms from the client redirect, creating the booking
// first when checkout started without one. It is safe to call after the
// webhook already confirmed: the engine then reports AlreadyConfirmed.
type FallbackService struct {
	Engine   ConfirmationEngine
	Bookings bookingRepo.BookingRepository
	Tours    tourRepo.TourRepository
	// Checkout is optional. With it, creating a booking requires a paid
	// checkout session. Without it, session ids and create requests are
	// trusted as given, which is only suitable for local runs.
	Checkout CheckoutVerifier
	Logger   *zap.Logger
	Timeout  time.Duration
}

func (s *FallbackService) ConfirmFromRedirect(ctx context.Context, actor models.Actor, req FallbackRequest) (*ConfirmationResult, error) {
	log := s.logger().With(zap.String("sessionId", req.SessionID), zap.String("actorId", actor.ID))

	bookingID := strings.TrimSpace(req.BookingID)
	var paymentIntentID string

	if req.SessionID != "" {
		if s.Checkout != nil {
			info, err := s.lookupSession(ctx, req.SessionID)
			if err != nil {
				return nil, err
			}
			if !info.Paid {
				return nil, fmt.Errorf("%w: checkout session %s", models.ErrPaymentNotCompleted, req.SessionID)
			}
			paymentIntentID = info.PaymentIntentID
			switch {
			case bookingID == "":
				bookingID = info.BookingID
			case info.BookingID != "" && info.BookingID != bookingID:
				return nil, fmt.Errorf("%w: checkout session %s belongs to another booking", models.ErrValidation, req.SessionID)
			}
		} else {
			log.Warn("checkout verification unavailable; trusting redirect session id")
		}

		if bookingID == "" {
			existing, err := s.findBySession(ctx, req.SessionID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				bookingID = existing.ID
			}
		}
	}

	if bookingID == "" {
		created, err := s.createPending(ctx, actor, req)
		if err != nil {
			return nil, err
		}
		log.Info("created booking from redirect fallback", zap.String("bookingId", created.ID))
		bookingID = created.ID
	}

	return s.Engine.ConfirmPayment(ctx, ConfirmRequest{
		BookingID:       bookingID,
		Actor:           actor,
		PaymentIntentID: paymentIntentID,
		Source:          "fallback",
	})
}

func (s *FallbackService) createPending(ctx context.Context, actor models.Actor, req FallbackRequest) (*models.Booking, error) {
	if actor.Kind != models.ActorUser || actor.ID == "" {
		return nil, fmt.Errorf("%w: only a signed-in traveller can create a booking", models.ErrForbidden)
	}
	if strings.TrimSpace(req.TourID) == "" {
		return nil, fmt.Errorf("%w: bookingId or tourId is required", models.ErrValidation)
	}
	if req.Travelers < 1 {
		return nil, fmt.Errorf("%w: travelers must be at least 1", models.ErrValidation)
	}

	dates, err := parseBookingDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tour, err := s.Tours.GetByID(ctx, req.TourID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load tour %s: %w", models.ErrUpstreamUnavailable, req.TourID, err)
	}
	if tour.MaxTravelers > 0 && req.Travelers > tour.MaxTravelers {
		return nil, fmt.Errorf("%w: tour %s allows at most %d travelers", models.ErrValidation, tour.ID, tour.MaxTravelers)
	}
	// A paid session was already verified by the caller; without one there
	// is no proof of payment.
	if s.Checkout != nil && req.SessionID == "" {
		return nil, fmt.Errorf("%w: a paid checkout session is required to create a booking", models.ErrPaymentNotCompleted)
	}

	b := &models.Booking{
		UserID:          actor.ID,
		TourID:          tour.ID,
		GuideID:         tour.GuideID,
		Dates:           dates,
		Travelers:       req.Travelers,
		TotalPrice:      tour.PricePerPerson * float64(req.Travelers),
		Status:          models.BookingStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		StripeSessionID: req.SessionID,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	err = s.Bookings.Create(ctx, b)
	if errors.Is(err, bookingRepo.ErrDuplicateBooking) && req.SessionID != "" {
		// A concurrent redirect for the same checkout created it first.
		return s.Bookings.GetByStripeSessionID(ctx, req.SessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create booking: %w", models.ErrUpstreamUnavailable, err)
	}
	return b, nil
}

func parseBookingDates(startRaw, endRaw any) (models.BookingDates, error) {
	start, err := availability.NormalizeToDay(startRaw)
	if err != nil {
		return models.BookingDates{}, &availability.RangeError{Index: 0, Reason: "startDate: " + err.Error()}
	}
	dates := models.BookingDates{StartDate: start}
	if endRaw == nil {
		return dates, nil
	}
	if s, ok := endRaw.(string); ok && strings.TrimSpace(s) == "" {
		return dates, nil
	}
	end, err := availability.NormalizeToDay(endRaw)
	if err != nil {
		return models.BookingDates{}, &availability.RangeError{Index: 0, Reason: "endDate: " + err.Error()}
	}
	if end.Before(start) {
		return models.BookingDates{}, &availability.RangeError{Index: 0, Reason: "endDate is before startDate"}
	}
	dates.EndDate = &end
	return dates, nil
}

func (s *FallbackService) lookupSession(ctx context.Context, sessionID string) (*models.CheckoutSessionInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	info, err := s.Checkout.LookupCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: look up checkout session: %w", models.ErrUpstreamUnavailable, err)
	}
	return info, nil
}

func (s *FallbackService) findBySession(ctx context.Context, sessionID string) (*models.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.Bookings.GetByStripeSessionID(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find booking by session: %w", models.ErrUpstreamUnavailable, err)
	}
	return b, nil
}

func (s *FallbackService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *FallbackService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
