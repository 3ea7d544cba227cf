package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// TripRepository defines the interface for interacting with trip data.
// Create assigns the trip a sequential integer TripID.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error)
	GetByTripID(ctx context.Context, tripID int) (*domain.Trip, error)
}

// FileRepository defines the interface for interacting with stored file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *domain.StoredFile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.StoredFile, error)
	GetByTripID(ctx context.Context, tripID int) ([]domain.StoredFile, error)
}
