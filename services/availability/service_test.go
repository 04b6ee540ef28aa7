package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	guideRepo "wanderly/database/repository/guide"
	"wanderly/models"

	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*DefaultAvailabilityService, *guideRepo.MemoryGuideRepo) {
	t.Helper()
	repo := guideRepo.NewMemoryGuideRepo()
	repo.Put(models.Guide{ID: "G1", UserID: "U-guide", Name: "Amina"})
	return NewAvailabilityService(repo, NewLocalLocker(), zap.NewNop()), repo
}

func TestMutateReplaceRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := []models.DateRangeInput{
		{Start: "2025-06-12", End: "2025-06-15"},
		{Start: "2025-06-01", End: "2025-06-03"},
		{Start: "2025-06-02", End: "2025-06-05"},
	}
	if _, err := svc.Mutate(ctx, "G1", input, ModeReplace); err != nil {
		t.Fatalf("Mutate returned error: %v", err)
	}

	got, err := svc.Get(ctx, "G1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	parsed, _ := ParseRanges(input)
	assertRanges(t, got, MergeRanges(parsed))
}

func TestMutateAddKeepsExisting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Mutate(ctx, "G1", []models.DateRangeInput{{Start: "2025-06-01", End: "2025-06-02"}}, ModeAdd); err != nil {
		t.Fatalf("first add: %v", err)
	}
	got, err := svc.Mutate(ctx, "G1", []models.DateRangeInput{{Start: "2025-06-10", End: "2025-06-12"}}, ModeAdd)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	assertRanges(t, got, []models.DateRange{rng("2025-06-01", "2025-06-02", ""), rng("2025-06-10", "2025-06-12", "")})

	replaced, err := svc.Mutate(ctx, "G1", []models.DateRangeInput{{Start: "2025-08-01", End: "2025-08-01"}}, ModeReplace)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	assertRanges(t, replaced, []models.DateRange{rng("2025-08-01", "2025-08-01", "")})
}

func TestMutateInvalidBatchLeavesStoreUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	before, err := svc.Mutate(ctx, "G1", []models.DateRangeInput{{Start: "2025-06-01", End: "2025-06-02"}}, ModeReplace)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err = svc.Mutate(ctx, "G1", []models.DateRangeInput{
		{Start: "2025-07-01", End: "2025-07-02"},
		{Start: "2025-07-10", End: "2025-07-05"},
	}, ModeReplace)
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) || rangeErr.Index != 1 {
		t.Fatalf("expected RangeError at index 1, got %v", err)
	}

	after, err := svc.Get(ctx, "G1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	assertRanges(t, after, before)
}

func TestMutateRejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Mutate(ctx, "G1", nil, ModeAdd); !errors.Is(err, ErrEmptyRanges) {
		t.Errorf("empty ranges: got %v, want ErrEmptyRanges", err)
	}
	if _, err := svc.Mutate(ctx, "G1", []models.DateRangeInput{{Start: "2025-06-01", End: "2025-06-01"}}, "merge"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("bad mode: got %v, want ErrInvalidMode", err)
	}
	if _, err := svc.Mutate(ctx, "missing", []models.DateRangeInput{{Start: "2025-06-01", End: "2025-06-01"}}, ModeAdd); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown guide: got %v, want ErrNotFound", err)
	}
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every other day of June and July, so no two writers merge.
			d := day("2025-06-01").AddDate(0, 0, i*2)
			_, err := svc.AddBusyRanges(ctx, "G1", models.DateRange{Start: d, End: d, Note: fmt.Sprintf("w%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AddBusyRanges: %v", err)
		}
	}

	got, err := svc.Get(ctx, "G1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != writers {
		t.Fatalf("got %d ranges, want %d: %v", len(got), writers, got)
	}
}

// racingRepo lets another writer slip in just before the caller's write,
// so the caller's version is stale the first few times.
type racingRepo struct {
	*guideRepo.MemoryGuideRepo
	mu       sync.Mutex
	races    int
	interlop models.DateRange
}

func (r *racingRepo) ReplaceAvailability(ctx context.Context, guideID string, ranges []models.DateRange, expected int64) error {
	r.mu.Lock()
	race := r.races > 0
	if race {
		r.races--
	}
	r.mu.Unlock()

	if race {
		current, err := r.MemoryGuideRepo.GetAvailability(ctx, guideID)
		if err != nil {
			return err
		}
		merged := MergeRanges(append(current.NotAvailable, r.interlop))
		if err := r.MemoryGuideRepo.ReplaceAvailability(ctx, guideID, merged, current.Version); err != nil {
			return err
		}
	}
	return r.MemoryGuideRepo.ReplaceAvailability(ctx, guideID, ranges, expected)
}

func TestVersionConflictRetries(t *testing.T) {
	inner := guideRepo.NewMemoryGuideRepo()
	inner.Put(models.Guide{ID: "G1"})
	repo := &racingRepo{MemoryGuideRepo: inner, races: 2, interlop: rng("2025-09-01", "2025-09-02", "other")}
	svc := NewAvailabilityService(repo, NewLocalLocker(), zap.NewNop())

	got, err := svc.AddBusyRanges(context.Background(), "G1", rng("2025-06-10", "2025-06-12", "Booking B1"))
	if err != nil {
		t.Fatalf("AddBusyRanges: %v", err)
	}
	assertRanges(t, got, []models.DateRange{rng("2025-06-10", "2025-06-12", "Booking B1"), rng("2025-09-01", "2025-09-02", "other")})
}

func TestVersionConflictExhausted(t *testing.T) {
	inner := guideRepo.NewMemoryGuideRepo()
	inner.Put(models.Guide{ID: "G1"})
	repo := &racingRepo{MemoryGuideRepo: inner, races: 100, interlop: rng("2025-09-01", "2025-09-02", "")}
	svc := NewAvailabilityService(repo, nil, zap.NewNop())
	svc.MaxRetries = 3

	_, err := svc.AddBusyRanges(context.Background(), "G1", rng("2025-06-10", "2025-06-12", ""))
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func TestAddBusyRangesTruncatesToDay(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	got, err := svc.AddBusyRanges(context.Background(), "G1", models.DateRange{Start: start, End: start.Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("AddBusyRanges: %v", err)
	}
	assertRanges(t, got, []models.DateRange{rng("2025-06-10", "2025-06-12", "")})
}
