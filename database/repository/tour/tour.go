package tourRepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wanderly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrTourNotFound = fmt.Errorf("tour %w", models.ErrNotFound)

// TourRepository is a read-only view of tours; tour management lives elsewhere.
type TourRepository interface {
	GetByID(ctx context.Context, tourID string) (*models.Tour, error)
}

type MongoTourRepo struct {
	coll *mongo.Collection
}

func NewMongoTourRepo(db *mongo.Database) *MongoTourRepo {
	return &MongoTourRepo{coll: db.Collection("tours")}
}

func (r *MongoTourRepo) GetByID(ctx context.Context, tourID string) (*models.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tour models.Tour
	if err := r.coll.FindOne(ctx, bson.M{"id": tourID}).Decode(&tour); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("error fetching tour %s: %w", tourID, err)
	}
	return &tour, nil
}

type MemoryTourRepo struct {
	mu    sync.RWMutex
	tours map[string]models.Tour
}

func NewMemoryTourRepo(tours ...models.Tour) *MemoryTourRepo {
	r := &MemoryTourRepo{tours: make(map[string]models.Tour)}
	for _, t := range tours {
		r.tours[t.ID] = t
	}
	return r
}

func (r *MemoryTourRepo) Put(t models.Tour) {
	r.mu.Lock()
	r.tours[t.ID] = t
	r.mu.Unlock()
}

func (r *MemoryTourRepo) GetByID(_ context.Context, tourID string) (*models.Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tours[tourID]
	if !ok {
		return nil, ErrTourNotFound
	}
	return &t, nil
}
