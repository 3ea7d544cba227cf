package api_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/api"
	"tripy/photo-app/internal/domain"
	"tripy/photo-app/internal/service"
)

const testJWTSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// --- mock services ----------------------------------------------------------
// Set only the method fields your test needs.

type mockAuthService struct {
	register func(ctx context.Context, name, email, password string) (*domain.User, error)
	login    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return m.register(ctx, name, email, password)
}
func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return m.login(ctx, email, password)
}
func (m *mockAuthService) GetJWTSecret() string { return testJWTSecret }

type mockTripService struct {
	createTrip    func(ctx context.Context, ownerID primitive.ObjectID, title string) (*domain.Trip, error)
	getTripTitles func(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error)
}

func (m *mockTripService) CreateTrip(ctx context.Context, ownerID primitive.ObjectID, title string) (*domain.Trip, error) {
	return m.createTrip(ctx, ownerID, title)
}
func (m *mockTripService) GetTripTitles(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Trip, error) {
	return m.getTripTitles(ctx, ownerID)
}

type mockUploadService struct {
	ingest func(ctx context.Context, ownerID primitive.ObjectID, tripID int, originalName, contentType string, size int64, r io.Reader) (*domain.StoredFile, error)
}

func (m *mockUploadService) Ingest(ctx context.Context, ownerID primitive.ObjectID, tripID int, originalName, contentType string, size int64, r io.Reader) (*domain.StoredFile, error) {
	return m.ingest(ctx, ownerID, tripID, originalName, contentType, size, r)
}

// Compile-time interface checks
var (
	_ service.AuthService   = (*mockAuthService)(nil)
	_ service.TripService   = (*mockTripService)(nil)
	_ service.UploadService = (*mockUploadService)(nil)
)

// --- helpers ----------------------------------------------------------------

// newTestRouter wires mocks into the real route setup, exactly as main.go
// wires production services.
func newTestRouter(authSvc service.AuthService, tripSvc service.TripService, uploadSvc service.UploadService) http.Handler {
	router := gin.New()
	api.SetupRoutes(router, testJWTSecret, 32<<20, authSvc, tripSvc, uploadSvc)
	return router
}

// mintToken produces a valid bearer token for the given user id.
func mintToken(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	return mintTokenWithExpiry(t, userID, time.Now().Add(time.Hour))
}

func mintTokenWithExpiry(t *testing.T, userID primitive.ObjectID, expires time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":  userID.Hex(),
		"name": "Test User",
		"sub":  userID.Hex(),
		"exp":  expires.Unix(),
		"iat":  time.Now().Add(-time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}
