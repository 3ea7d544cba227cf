package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/domain"
	"tripy/photo-app/internal/service"
)

// TripHandler holds the trip service dependency.
type TripHandler struct {
	tripService service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// --- DTOs ---

type CreateTripRequest struct {
	Title string `json:"title" binding:"required"`
}

// TripResponse matches the shape the mobile client binds its selection
// list to: {id, title}.
type TripResponse struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type TripListResponse struct {
	Trips []TripResponse `json:"trips"`
}

// MapTripToResponse converts a domain.Trip to a TripResponse DTO.
func MapTripToResponse(trip *domain.Trip) TripResponse {
	if trip == nil {
		return TripResponse{}
	}
	return TripResponse{
		ID:    trip.TripID,
		Title: trip.Title,
	}
}

// MapTripsToResponse converts a slice of domain.Trip to TripResponse DTOs.
// A nil or empty input maps to an empty (not null) JSON array.
func MapTripsToResponse(trips []domain.Trip) []TripResponse {
	responses := make([]TripResponse, len(trips))
	for i, trip := range trips {
		responses[i] = MapTripToResponse(&trip)
	}
	return responses
}

// --- Handler Methods ---

// GetTripTitles handles GET /labels/getTripTitle/:userId.
// The path userId must match the authenticated user; one user cannot read
// another user's trip list.
func (h *TripHandler) GetTripTitles(c *gin.Context) {
	authedIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	pathUserID := c.Param("userId")
	if pathUserID != authedIDStr {
		abortWithError(c, http.StatusForbidden, "Cannot read trips for another user")
		return
	}

	ownerID, err := primitive.ObjectIDFromHex(authedIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	trips, err := h.tripService.GetTripTitles(c.Request.Context(), ownerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch trips")
		return
	}

	c.JSON(http.StatusOK, TripListResponse{Trips: MapTripsToResponse(trips)})
}

// CreateTrip handles POST /trips for the authenticated user.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	authedIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	ownerID, err := primitive.ObjectIDFromHex(authedIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), ownerID, req.Title)
	if err != nil {
		if errors.Is(err, service.ErrTripTitleRequired) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create trip")
		}
		return
	}

	c.JSON(http.StatusCreated, MapTripToResponse(trip))
}
