package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wanderly/models"
)

var (
	ErrBookingNotFound = fmt.Errorf("booking %w", models.ErrNotFound)
	// ErrDuplicateBooking is returned when a booking with the same id or
	// checkout session already exists.
	ErrDuplicateBooking = errors.New("duplicate booking")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*models.Booking, error)
	// MarkPaid moves a booking to confirmed/paid in one conditional write.
	// transitioned is false when the booking was already paid; the stored
	// booking is returned either way.
	MarkPaid(ctx context.Context, bookingID, paymentIntentID string, at time.Time) (booking *models.Booking, transitioned bool, err error)
	ListPaidByGuide(ctx context.Context, guideID string) ([]models.Booking, error)
}
