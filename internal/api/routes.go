package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripy/photo-app/internal/service"
)

// SetupRoutes wires all handlers into the router. The mobile client hits
// everything under /api, matching its configured base URL.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	maxUploadBytes int64,
	authService service.AuthService,
	tripService service.TripService,
	uploadService service.UploadService,
) {
	authHandler := NewAuthHandler(authService)
	tripHandler := NewTripHandler(tripService)
	uploadHandler := NewUploadHandler(uploadService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := router.Group("/api")
	{
		usersGroup := apiGroup.Group("/users")
		{
			usersGroup.POST("/register", authHandler.Register)
			usersGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiGroup.Group("")
	protected.Use(authMiddleware)
	{
		// GET /api/labels/getTripTitle/{userId} — the selection list the
		// client renders as its trip dropdown.
		protected.GET("/labels/getTripTitle/:userId", tripHandler.GetTripTitles)

		// POST /api/trips — create a trip the user can upload photos to.
		protected.POST("/trips", tripHandler.CreateTrip)

		// POST /api/upload — single-file multipart ingestion.
		protected.POST("/upload", MaxBodySize(maxUploadBytes), uploadHandler.Upload)

		// POST /api/logout — best-effort; the client tears down locally
		// whatever this returns.
		protected.POST("/logout", authHandler.Logout)
	}
}
