package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoredFile stores metadata about a photo ingested through the upload
// endpoint. The actual bytes live in the configured file storage backend.
type StoredFile struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID `bson:"ownerId" json:"ownerId"`             // User who uploaded the file
	TripID        int                `bson:"tripId" json:"tripId"`               // Trip the photo belongs to
	GeneratedName string             `bson:"generatedName" json:"generatedName"` // Storage object key, unique per upload
	OriginalName  string             `bson:"originalName" json:"originalName"`   // Filename as supplied by the client
	ContentType   string             `bson:"contentType" json:"contentType"`     // MIME type (e.g. "image/jpeg")
	SizeBytes     int64              `bson:"sizeBytes" json:"sizeBytes"`
	StoredPath    string             `bson:"storedPath" json:"-"` // Backend-specific location, internal use
	UploadedAt    time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
