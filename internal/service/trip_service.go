package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/domain"
	"tripy/photo-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrTripTitleRequired = errors.New("trip title cannot be empty")
	ErrTripNotFound      = errors.New("trip not found")
)

// TripService manages the named trips a user can attach photos to.
type TripService interface {
	CreateTrip(ctx context.Context, ownerID primitive.ObjectID, title string) (*domain.Trip, error)
	// GetTripTitles returns the user's trips ordered by id. An empty slice
	// is a valid result, not an error.
	GetTripTitles(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error)
}

// tripService implements the TripService interface.
type tripService struct {
	tripRepo repository.TripRepository
}

// NewTripService creates a new instance of tripService.
func NewTripService(tripRepo repository.TripRepository) TripService {
	return &tripService{tripRepo: tripRepo}
}

// CreateTrip creates a trip owned by the given user.
func (s *tripService) CreateTrip(ctx context.Context, ownerID primitive.ObjectID, title string) (*domain.Trip, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTripTitleRequired
	}
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}

	trip := &domain.Trip{
		Title:   title,
		OwnerID: ownerID,
	}
	return s.tripRepo.Create(ctx, trip)
}

// GetTripTitles retrieves all trips owned by the user.
func (s *tripService) GetTripTitles(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}
	trips, err := s.tripRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}
