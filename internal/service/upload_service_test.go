package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/domain"
	"tripy/photo-app/internal/repository"
)

// --- test doubles -----------------------------------------------------------

// fakeTripRepo is a test double for repository.TripRepository. Set only the
// fields a test needs.
type fakeTripRepo struct {
	create       func(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	getByOwnerID func(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error)
	getByTripID  func(ctx context.Context, tripID int) (*domain.Trip, error)
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	if f.create == nil {
		return nil, errors.New("not implemented")
	}
	return f.create(ctx, trip)
}
func (f *fakeTripRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error) {
	if f.getByOwnerID == nil {
		return nil, errors.New("not implemented")
	}
	return f.getByOwnerID(ctx, ownerID)
}
func (f *fakeTripRepo) GetByTripID(ctx context.Context, tripID int) (*domain.Trip, error) {
	return f.getByTripID(ctx, tripID)
}

// fakeFileRepo records created metadata.
type fakeFileRepo struct {
	created   []*domain.StoredFile
	createErr error
}

func (f *fakeFileRepo) Create(ctx context.Context, file *domain.StoredFile) (primitive.ObjectID, error) {
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	f.created = append(f.created, file)
	return primitive.NewObjectID(), nil
}
func (f *fakeFileRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.StoredFile, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeFileRepo) GetByTripID(ctx context.Context, tripID int) ([]domain.StoredFile, error) {
	return nil, nil
}

// fakeStorage records saves and deletes.
type fakeStorage struct {
	savedKeys   []string
	deletedKeys []string
	saveErr     error
}

func (f *fakeStorage) Save(ctx context.Context, objectKey, contentType string, size int64, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.savedKeys = append(f.savedKeys, objectKey)
	return "uploads/" + objectKey, nil
}
func (f *fakeStorage) Delete(ctx context.Context, objectKey string) error {
	f.deletedKeys = append(f.deletedKeys, objectKey)
	return nil
}

// ---------------------------------------------------------------------------

func TestGenerateStoredName_Format(t *testing.T) {
	ts := time.UnixMilli(1690000000123)
	name := GenerateStoredName(ts, "upload.jpg")
	assert.Equal(t, "1690000000123-upload.jpg", name)
}

func TestGenerateStoredName_FlattensPaths(t *testing.T) {
	ts := time.UnixMilli(42)
	name := GenerateStoredName(ts, "../../etc/passwd")
	assert.Equal(t, "42-passwd", name)
}

func TestGenerateStoredName_EmptyNameFallsBack(t *testing.T) {
	ts := time.UnixMilli(42)
	name := GenerateStoredName(ts, "")
	assert.True(t, strings.HasPrefix(name, "42-upload-"), "got %q", name)
}

func TestGenerateStoredName_DistinctAcrossMilliseconds(t *testing.T) {
	// Two uploads of the same original name one millisecond apart must get
	// distinct stored names.
	a := GenerateStoredName(time.UnixMilli(1000), "upload.jpg")
	b := GenerateStoredName(time.UnixMilli(1001), "upload.jpg")
	assert.NotEqual(t, a, b)
}

func newTestUploadService(tripRepo *fakeTripRepo, fileRepo *fakeFileRepo, store *fakeStorage) *uploadService {
	svc := NewUploadService(tripRepo, fileRepo, store).(*uploadService)
	svc.now = func() time.Time { return time.UnixMilli(1690000000123) }
	return svc
}

func TestIngest_Success(t *testing.T) {
	owner := primitive.NewObjectID()
	tripRepo := &fakeTripRepo{
		getByTripID: func(_ context.Context, tripID int) (*domain.Trip, error) {
			return &domain.Trip{TripID: tripID, Title: "Seoul", OwnerID: owner}, nil
		},
	}
	fileRepo := &fakeFileRepo{}
	store := &fakeStorage{}
	svc := newTestUploadService(tripRepo, fileRepo, store)

	stored, err := svc.Ingest(context.Background(), owner, 1, "upload.jpg", "image/jpeg", 4, strings.NewReader("data"))
	require.NoError(t, err)

	assert.Equal(t, "1690000000123-upload.jpg", stored.GeneratedName)
	assert.Equal(t, "upload.jpg", stored.OriginalName)
	assert.Equal(t, 1, stored.TripID)
	assert.Equal(t, owner, stored.OwnerID)
	assert.Equal(t, int64(4), stored.SizeBytes)
	assert.Equal(t, "uploads/1690000000123-upload.jpg", stored.StoredPath)
	assert.NotEqual(t, primitive.NilObjectID, stored.ID)

	require.Len(t, fileRepo.created, 1)
	require.Len(t, store.savedKeys, 1)
}

func TestIngest_TripNotFound(t *testing.T) {
	tripRepo := &fakeTripRepo{
		getByTripID: func(_ context.Context, _ int) (*domain.Trip, error) {
			return nil, repository.ErrNotFound
		},
	}
	fileRepo := &fakeFileRepo{}
	store := &fakeStorage{}
	svc := newTestUploadService(tripRepo, fileRepo, store)

	_, err := svc.Ingest(context.Background(), primitive.NewObjectID(), 99, "a.jpg", "image/jpeg", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrTripNotFound)
	assert.Empty(t, store.savedKeys, "nothing may be written for an unknown trip")
}

func TestIngest_TripNotOwned(t *testing.T) {
	tripRepo := &fakeTripRepo{
		getByTripID: func(_ context.Context, tripID int) (*domain.Trip, error) {
			return &domain.Trip{TripID: tripID, OwnerID: primitive.NewObjectID()}, nil
		},
	}
	svc := newTestUploadService(tripRepo, &fakeFileRepo{}, &fakeStorage{})

	_, err := svc.Ingest(context.Background(), primitive.NewObjectID(), 1, "a.jpg", "image/jpeg", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrTripNotOwned)
}

func TestIngest_StorageFailureLeavesNoMetadata(t *testing.T) {
	owner := primitive.NewObjectID()
	tripRepo := &fakeTripRepo{
		getByTripID: func(_ context.Context, tripID int) (*domain.Trip, error) {
			return &domain.Trip{TripID: tripID, OwnerID: owner}, nil
		},
	}
	fileRepo := &fakeFileRepo{}
	store := &fakeStorage{saveErr: fmt.Errorf("disk full")}
	svc := newTestUploadService(tripRepo, fileRepo, store)

	_, err := svc.Ingest(context.Background(), owner, 1, "a.jpg", "image/jpeg", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.Empty(t, fileRepo.created, "a failed write must not be acknowledged")
}

func TestIngest_MetadataFailureCleansUpObject(t *testing.T) {
	owner := primitive.NewObjectID()
	tripRepo := &fakeTripRepo{
		getByTripID: func(_ context.Context, tripID int) (*domain.Trip, error) {
			return &domain.Trip{TripID: tripID, OwnerID: owner}, nil
		},
	}
	fileRepo := &fakeFileRepo{createErr: fmt.Errorf("db down")}
	store := &fakeStorage{}
	svc := newTestUploadService(tripRepo, fileRepo, store)

	_, err := svc.Ingest(context.Background(), owner, 1, "a.jpg", "image/jpeg", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrMetadataRecord)
	require.Len(t, store.deletedKeys, 1)
	assert.Equal(t, store.savedKeys, store.deletedKeys)
}
