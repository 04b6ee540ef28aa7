package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wanderly/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a BookingRepository backed by the "bookings" collection.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{coll: db.Collection("bookings")}
}

func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	if _, err := repo.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (repo *MongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return repo.findOne(ctx, bson.M{"id": bookingID})
}

func (repo *MongoBookingRepo) GetByStripeSessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	return repo.findOne(ctx, bson.M{"stripeSessionId": sessionID})
}

func (repo *MongoBookingRepo) MarkPaid(ctx context.Context, bookingID, paymentIntentID string, at time.Time) (*models.Booking, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	at = at.UTC()
	filter := bson.M{
		"id":            bookingID,
		"paymentStatus": bson.M{"$ne": models.PaymentStatusPaid},
	}
	set := bson.M{
		"paymentStatus": models.PaymentStatusPaid,
		"status":        models.BookingStatusConfirmed,
		"confirmedAt":   at,
		"updatedAt":     at,
	}
	if paymentIntentID != "" {
		set["stripePaymentIntentId"] = paymentIntentID
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := repo.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == nil {
		return &updated, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to mark booking %s paid: %w", bookingID, err)
	}

	// No match: either the booking does not exist or it is already paid.
	existing, err := repo.findOne(ctx, bson.M{"id": bookingID})
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (repo *MongoBookingRepo) ListPaidByGuide(ctx context.Context, guideID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"guideId": guideID, "paymentStatus": models.PaymentStatusPaid}
	cursor, err := repo.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "dates.startDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error finding paid bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error fetching booking: %w", err)
	}
	return &booking, nil
}
