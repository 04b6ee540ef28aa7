package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"wanderly/models"

	"github.com/google/uuid"
)

// MemoryBookingRepo is an in-process BookingRepository. MarkPaid holds the
// write lock across its check and update, matching the atomicity of the
// Mongo conditional update.
type MemoryBookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *MemoryBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if _, exists := r.bookings[booking.ID]; exists {
		return ErrDuplicateBooking
	}
	if booking.StripeSessionID != "" {
		for _, b := range r.bookings {
			if b.StripeSessionID == booking.StripeSessionID {
				return ErrDuplicateBooking
			}
		}
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	r.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, bookingID string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *MemoryBookingRepo) GetByStripeSessionID(_ context.Context, sessionID string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bookings {
		if sessionID != "" && b.StripeSessionID == sessionID {
			return b.Clone(), nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *MemoryBookingRepo) MarkPaid(ctx context.Context, bookingID, paymentIntentID string, at time.Time) (*models.Booking, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, false, ErrBookingNotFound
	}
	if b.PaymentStatus == models.PaymentStatusPaid {
		return b.Clone(), false, nil
	}
	at = at.UTC()
	b.PaymentStatus = models.PaymentStatusPaid
	b.Status = models.BookingStatusConfirmed
	b.ConfirmedAt = &at
	b.UpdatedAt = at
	if paymentIntentID != "" {
		b.StripePaymentIntentID = paymentIntentID
	}
	return b.Clone(), true, nil
}

func (r *MemoryBookingRepo) ListPaidByGuide(_ context.Context, guideID string) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Booking{}
	for _, b := range r.bookings {
		if b.GuideID == guideID && b.PaymentStatus == models.PaymentStatusPaid {
			out = append(out, *b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dates.StartDate.Equal(out[j].Dates.StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].Dates.StartDate.Before(out[j].Dates.StartDate)
	})
	return out, nil
}
