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

const fileCollectionName = "files"

// mongoFileRepository implements repository.FileRepository
type mongoFileRepository struct {
	collection *mongo.Collection
}

// NewMongoFileRepository creates a new StoredFile repository backed by MongoDB.
func NewMongoFileRepository(db *mongo.Database) repository.FileRepository {
	return &mongoFileRepository{
		collection: db.Collection(fileCollectionName),
	}
}

// Create inserts new stored file metadata into the database.
func (r *mongoFileRepository) Create(ctx context.Context, file *domain.StoredFile) (primitive.ObjectID, error) {
	if file.OwnerID == primitive.NilObjectID || file.GeneratedName == "" {
		return primitive.NilObjectID, errors.New("stored file requires ownerId and generatedName")
	}

	file.ID = primitive.NewObjectID()
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, file)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves stored file metadata by its ID.
func (r *mongoFileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.StoredFile, error) {
	var file domain.StoredFile
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// GetByTripID retrieves all files uploaded to a trip, newest first.
func (r *mongoFileRepository) GetByTripID(ctx context.Context, tripID int) ([]domain.StoredFile, error) {
	filter := bson.M{"tripId": tripID}
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []domain.StoredFile{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// EnsureFileIndexes creates necessary indexes for the files collection.
func EnsureFileIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tripId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Object keys should be unique within the storage backend
			Keys:    bson.D{{Key: "generatedName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal; see EnsureUserIndexes
	}
}
