package guideRepo

import (
	"context"
	"sync"

	"wanderly/models"
)

// MemoryGuideRepo keeps guides in process memory. It honours the same
// version contract as the Mongo repository.
type MemoryGuideRepo struct {
	mu     sync.RWMutex
	guides map[string]*models.Guide
}

func NewMemoryGuideRepo() *MemoryGuideRepo {
	return &MemoryGuideRepo{guides: make(map[string]*models.Guide)}
}

// Put inserts or overwrites a guide.
func (r *MemoryGuideRepo) Put(g models.Guide) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.NotAvailable = cloneRanges(g.NotAvailable)
	r.guides[g.ID] = &g
}

func (r *MemoryGuideRepo) GetByID(_ context.Context, guideID string) (*models.Guide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guides[guideID]
	if !ok {
		return nil, ErrGuideNotFound
	}
	cp := *g
	cp.NotAvailable = cloneRanges(g.NotAvailable)
	return &cp, nil
}

func (r *MemoryGuideRepo) GetByUserID(ctx context.Context, userID string) (*models.Guide, error) {
	r.mu.RLock()
	var id string
	for _, g := range r.guides {
		if g.UserID == userID {
			id = g.ID
			break
		}
	}
	r.mu.RUnlock()
	if id == "" {
		return nil, ErrGuideNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryGuideRepo) GetAvailability(_ context.Context, guideID string) (*models.GuideAvailability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guides[guideID]
	if !ok {
		return nil, ErrGuideNotFound
	}
	return &models.GuideAvailability{
		GuideID:      g.ID,
		NotAvailable: cloneRanges(g.NotAvailable),
		Version:      g.AvailabilityVersion,
	}, nil
}

func (r *MemoryGuideRepo) ReplaceAvailability(ctx context.Context, guideID string, ranges []models.DateRange, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guides[guideID]
	if !ok {
		return ErrGuideNotFound
	}
	if g.AvailabilityVersion != expectedVersion {
		return ErrVersionConflict
	}
	g.NotAvailable = cloneRanges(ranges)
	g.AvailabilityVersion++
	return nil
}

func cloneRanges(in []models.DateRange) []models.DateRange {
	out := make([]models.DateRange, len(in))
	copy(out, in)
	return out
}
