package bookingRepo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wanderly/models"
)

func pendingBooking(id string) *models.Booking {
	return &models.Booking{
		ID:            id,
		UserID:        "U1",
		TourID:        "T1",
		GuideID:       "G1",
		Dates:         models.BookingDates{StartDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		Travelers:     2,
		TotalPrice:    300,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestMarkPaidTransitionsOnce(t *testing.T) {
	repo := NewMemoryBookingRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingBooking("B1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	b, changed, err := repo.MarkPaid(ctx, "B1", "pi_1", now)
	if err != nil || !changed {
		t.Fatalf("first MarkPaid: changed=%v err=%v", changed, err)
	}
	if b.PaymentStatus != models.PaymentStatusPaid || b.Status != models.BookingStatusConfirmed {
		t.Errorf("unexpected statuses: %s / %s", b.PaymentStatus, b.Status)
	}
	if b.ConfirmedAt == nil || !b.ConfirmedAt.Equal(now) || b.StripePaymentIntentID != "pi_1" {
		t.Errorf("confirmation fields not recorded: %+v", b)
	}

	_, changed, err = repo.MarkPaid(ctx, "B1", "pi_2", now.Add(time.Hour))
	if err != nil || changed {
		t.Fatalf("second MarkPaid: changed=%v err=%v", changed, err)
	}
	stored, _ := repo.GetByID(ctx, "B1")
	if stored.StripePaymentIntentID != "pi_1" || !stored.ConfirmedAt.Equal(now) {
		t.Errorf("second MarkPaid overwrote fields: %+v", stored)
	}
}

func TestMarkPaidConcurrent(t *testing.T) {
	repo := NewMemoryBookingRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingBooking("B1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const callers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := repo.MarkPaid(ctx, "B1", "", time.Now())
			if err != nil {
				t.Errorf("MarkPaid: %v", err)
				return
			}
			if changed {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if changes != 1 {
		t.Fatalf("transitions = %d, want 1", changes)
	}
}

func TestMarkPaidNotFound(t *testing.T) {
	repo := NewMemoryBookingRepo()
	_, _, err := repo.MarkPaid(context.Background(), "nope", "", time.Now())
	if !errors.Is(err, ErrBookingNotFound) || !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrBookingNotFound", err)
	}
}

func TestCreateRejectsDuplicateSession(t *testing.T) {
	repo := NewMemoryBookingRepo()
	ctx := context.Background()

	first := pendingBooking("")
	first.StripeSessionID = "cs_1"
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == "" {
		t.Fatal("Create did not assign an id")
	}

	second := pendingBooking("")
	second.StripeSessionID = "cs_1"
	if err := repo.Create(ctx, second); !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("got %v, want ErrDuplicateBooking", err)
	}

	found, err := repo.GetByStripeSessionID(ctx, "cs_1")
	if err != nil || found.ID != first.ID {
		t.Fatalf("GetByStripeSessionID = %v, %v", found, err)
	}
}

func TestListPaidByGuide(t *testing.T) {
	repo := NewMemoryBookingRepo()
	ctx := context.Background()
	for _, id := range []string{"B1", "B2", "B3"} {
		if err := repo.Create(ctx, pendingBooking(id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	other := pendingBooking("B4")
	other.GuideID = "G2"
	_ = repo.Create(ctx, other)

	for _, id := range []string{"B1", "B3", "B4"} {
		if _, _, err := repo.MarkPaid(ctx, id, "", time.Now()); err != nil {
			t.Fatalf("MarkPaid %s: %v", id, err)
		}
	}

	paid, err := repo.ListPaidByGuide(ctx, "G1")
	if err != nil {
		t.Fatalf("ListPaidByGuide: %v", err)
	}
	if len(paid) != 2 || paid[0].ID != "B1" || paid[1].ID != "B3" {
		t.Fatalf("ListPaidByGuide = %v", paid)
	}
}
