package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/domain"
	"tripy/photo-app/internal/repository"
	"tripy/photo-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrTripNotOwned    = errors.New("trip does not belong to this user")
	ErrStorageWrite    = errors.New("failed to persist uploaded file")
	ErrMetadataRecord  = errors.New("failed to record upload metadata")
	ErrNothingToIngest = errors.New("no file content to ingest")
)

// UploadService ingests a single uploaded file: it names it, persists the
// bytes and records the metadata.
type UploadService interface {
	Ingest(ctx context.Context, ownerID primitive.ObjectID, tripID int, originalName, contentType string, size int64, r io.Reader) (*domain.StoredFile, error)
}

// uploadService implements the UploadService interface.
type uploadService struct {
	tripRepo    repository.TripRepository
	fileRepo    repository.FileRepository
	fileStorage storage.FileStorage
	now         func() time.Time // Injectable clock for the name generator
}

// NewUploadService creates a new instance of uploadService.
func NewUploadService(
	tripRepo repository.TripRepository,
	fileRepo repository.FileRepository,
	fileStorage storage.FileStorage,
) UploadService {
	return &uploadService{
		tripRepo:    tripRepo,
		fileRepo:    fileRepo,
		fileStorage: fileStorage,
		now:         time.Now,
	}
}

// GenerateStoredName derives the storage object key for an upload by
// combining the upload timestamp (unix milliseconds) with the client-supplied
// original filename: "{unixMilli}-{originalName}". The original name is
// flattened to its base so path components cannot leak into the key, and an
// empty name falls back to a generated one.
//
// Two uploads in the same millisecond with identical original names collide;
// the scheme relies on clock resolution, not locking. See the files
// collection's unique index on generatedName, which turns that collision
// into an insert error rather than a silent overwrite.
func GenerateStoredName(ts time.Time, originalName string) string {
	base := filepath.Base(originalName)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = fmt.Sprintf("upload-%s", uuid.NewString())
	}
	return fmt.Sprintf("%d-%s", ts.UnixMilli(), base)
}

// Ingest validates ownership, persists the file bytes and records metadata.
// A storage failure aborts before any metadata is written, so there is never
// a partial acknowledgement.
func (s *uploadService) Ingest(ctx context.Context, ownerID primitive.ObjectID, tripID int, originalName, contentType string, size int64, r io.Reader) (*domain.StoredFile, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}
	if r == nil {
		return nil, ErrNothingToIngest
	}

	// 1. The trip must exist and belong to the uploader. The client enforces
	// a selection before uploading, but the server re-validates it.
	trip, err := s.tripRepo.GetByTripID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.OwnerID != ownerID {
		return nil, ErrTripNotOwned
	}

	// 2. Name and persist the bytes
	uploadedAt := s.now().UTC()
	generatedName := GenerateStoredName(uploadedAt, originalName)

	storedPath, err := s.fileStorage.Save(ctx, generatedName, contentType, size, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	// 3. Record the metadata
	file := &domain.StoredFile{
		OwnerID:       ownerID,
		TripID:        tripID,
		GeneratedName: generatedName,
		OriginalName:  filepath.Base(originalName),
		ContentType:   contentType,
		SizeBytes:     size,
		StoredPath:    storedPath,
		UploadedAt:    uploadedAt,
	}
	fileID, err := s.fileRepo.Create(ctx, file)
	if err != nil {
		// The bytes are orphaned if this fails; clean them up so storage and
		// metadata stay consistent.
		_ = s.fileStorage.Delete(ctx, generatedName)
		return nil, fmt.Errorf("%w: %v", ErrMetadataRecord, err)
	}
	file.ID = fileID

	return file, nil
}
