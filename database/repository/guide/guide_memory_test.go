package guideRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"wanderly/models"
)

func TestReplaceAvailabilityVersioning(t *testing.T) {
	repo := NewMemoryGuideRepo()
	repo.Put(models.Guide{ID: "G1", UserID: "U1"})
	ctx := context.Background()

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	ranges := []models.DateRange{{Start: day, End: day}}

	if err := repo.ReplaceAvailability(ctx, "G1", ranges, 0); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := repo.ReplaceAvailability(ctx, "G1", nil, 0); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale write: got %v, want ErrVersionConflict", err)
	}

	got, err := repo.GetAvailability(ctx, "G1")
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if got.Version != 1 || len(got.NotAvailable) != 1 {
		t.Fatalf("GetAvailability = %+v", got)
	}

	// Returned slices are copies.
	got.NotAvailable[0].Note = "mutated"
	again, _ := repo.GetAvailability(ctx, "G1")
	if again.NotAvailable[0].Note != "" {
		t.Error("GetAvailability leaked internal state")
	}
}

func TestGuideLookups(t *testing.T) {
	repo := NewMemoryGuideRepo()
	repo.Put(models.Guide{ID: "G1", UserID: "U1", Name: "Amina"})
	ctx := context.Background()

	g, err := repo.GetByUserID(ctx, "U1")
	if err != nil || g.ID != "G1" {
		t.Fatalf("GetByUserID = %v, %v", g, err)
	}
	if _, err := repo.GetByUserID(ctx, "U2"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}
	if _, err := repo.GetAvailability(ctx, "G9"); !errors.Is(err, ErrGuideNotFound) {
		t.Errorf("unknown guide: got %v, want ErrGuideNotFound", err)
	}
	if err := repo.ReplaceAvailability(ctx, "G9", nil, 0); !errors.Is(err, ErrGuideNotFound) {
		t.Errorf("write unknown guide: got %v, want ErrGuideNotFound", err)
	}
}
