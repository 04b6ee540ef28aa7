package guideRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wanderly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoGuideRepo implements GuideRepository using MongoDB.
type MongoGuideRepo struct {
	coll *mongo.Collection
}

// NewMongoGuideRepo constructs a GuideRepository backed by the "guides" collection.
func NewMongoGuideRepo(db *mongo.Database) *MongoGuideRepo {
	return &MongoGuideRepo{coll: db.Collection("guides")}
}

func (r *MongoGuideRepo) GetByID(ctx context.Context, guideID string) (*models.Guide, error) {
	return r.findOne(ctx, bson.M{"id": guideID}, nil)
}

func (r *MongoGuideRepo) GetByUserID(ctx context.Context, userID string) (*models.Guide, error) {
	return r.findOne(ctx, bson.M{"userId": userID}, nil)
}

func (r *MongoGuideRepo) GetAvailability(ctx context.Context, guideID string) (*models.GuideAvailability, error) {
	proj := bson.M{"id": 1, "notAvailable": 1, "availabilityVersion": 1}
	g, err := r.findOne(ctx, bson.M{"id": guideID}, proj)
	if err != nil {
		return nil, err
	}
	ranges := g.NotAvailable
	if ranges == nil {
		ranges = []models.DateRange{}
	}
	for i := range ranges {
		ranges[i].Start = ranges[i].Start.UTC()
		ranges[i].End = ranges[i].End.UTC()
	}
	return &models.GuideAvailability{
		GuideID:      g.ID,
		NotAvailable: ranges,
		Version:      g.AvailabilityVersion,
	}, nil
}

func (r *MongoGuideRepo) ReplaceAvailability(ctx context.Context, guideID string, ranges []models.DateRange, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if ranges == nil {
		ranges = []models.DateRange{}
	}

	filter := bson.M{"id": guideID, "availabilityVersion": expectedVersion}
	if expectedVersion == 0 {
		// Guides created before versioning carry no counter at all.
		filter = bson.M{
			"id": guideID,
			"$or": bson.A{
				bson.M{"availabilityVersion": 0},
				bson.M{"availabilityVersion": bson.M{"$exists": false}},
			},
		}
	}
	update := bson.M{
		"$set": bson.M{"notAvailable": ranges, "availabilityUpdatedAt": time.Now().UTC()},
		"$inc": bson.M{"availabilityVersion": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to replace availability for guide %s: %w", guideID, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"id": guideID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check guide %s after version mismatch: %w", guideID, err)
	}
	if n == 0 {
		return ErrGuideNotFound
	}
	return ErrVersionConflict
}

func (r *MongoGuideRepo) findOne(ctx context.Context, filter bson.M, projection bson.M) (*models.Guide, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var g models.Guide
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrGuideNotFound
		}
		return nil, fmt.Errorf("error fetching guide: %w", err)
	}
	return &g, nil
}
