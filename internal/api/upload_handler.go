package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripy/photo-app/internal/service"
)

// Maximum amount of the multipart body held in memory while parsing;
// the rest spools to temporary files.
const maxMultipartMemory = 8 << 20 // 8 MiB

// UploadHandler holds the upload service dependency.
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// UploadResponse acknowledges a stored file. FileName is the generated
// storage name, which doubles as the stored file's public identifier.
type UploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	ID       string `json:"id"`
}

// Upload handles POST /upload: a multipart form with exactly one "file"
// part and a string-encoded integer "tripId" field. The client only sends
// the request once both are present, but the server cannot trust the
// client, so both are re-validated here.
func (h *UploadHandler) Upload(c *gin.Context) {
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

	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		abortWithError(c, http.StatusBadRequest, "Malformed multipart body")
		return
	}

	tripID, err := strconv.Atoi(c.PostForm("tripId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing or invalid tripId field")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing file part")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read file part")
		return
	}
	defer src.Close()

	stored, err := h.uploadService.Ingest(
		c.Request.Context(),
		ownerID,
		tripID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		src,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTripNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTripNotOwned):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrStorageWrite), errors.Is(err, service.ErrMetadataRecord):
			abortWithError(c, http.StatusInternalServerError, "Failed to store uploaded file")
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during upload")
		}
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:  "saved",
		FileName: stored.GeneratedName,
		ID:       stored.ID.Hex(),
	})
}
