package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripy/photo-app/internal/domain"
	"tripy/photo-app/internal/repository"
)

const (
	tripCollectionName    = "trips"
	counterCollectionName = "counters"
	tripCounterKey        = "tripId"
)

// mongoTripRepository implements repository.TripRepository.
type mongoTripRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoTripRepository creates a new Trip repository backed by MongoDB.
func NewMongoTripRepository(db *mongo.Database) repository.TripRepository {
	return &mongoTripRepository{
		collection: db.Collection(tripCollectionName),
		counters:   db.Collection(counterCollectionName),
	}
}

// nextTripID atomically increments and returns the trip id sequence.
// The counter document is upserted on first use, so the first trip gets id 1.
func (r *mongoTripRepository) nextTripID(ctx context.Context) (int, error) {
	filter := bson.M{"_id": tripCounterKey}
	update := bson.M{"$inc": bson.M{"seq": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// Create inserts a new trip, assigning it the next sequential TripID.
func (r *mongoTripRepository) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	if trip.Title == "" || trip.OwnerID == primitive.NilObjectID {
		return nil, errors.New("trip title and owner are required")
	}

	tripID, err := r.nextTripID(ctx)
	if err != nil {
		return nil, err
	}

	trip.ID = primitive.NewObjectID()
	trip.TripID = tripID
	trip.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// GetByOwnerID retrieves all trips owned by a user, ordered by TripID.
// An empty result is valid and returns an empty slice, not an error.
func (r *mongoTripRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error) {
	filter := bson.M{"ownerId": ownerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "tripId", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trips := []domain.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// GetByTripID retrieves a single trip by its integer TripID.
func (r *mongoTripRepository) GetByTripID(ctx context.Context, tripID int) (*domain.Trip, error) {
	var trip domain.Trip
	filter := bson.M{"tripId": tripID}

	err := r.collection.FindOne(ctx, filter).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// EnsureTripIndexes creates necessary indexes for the trips collection.
func EnsureTripIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tripId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal; see EnsureUserIndexes
	}
}
