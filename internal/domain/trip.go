package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip is a named collection that uploaded photos are associated with.
// TripID is a small sequential integer because that is what the mobile
// client renders and sends back as the `tripId` form field; it is allocated
// from a counter sequence on insert, not by the caller.
type Trip struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TripID    int                `bson:"tripId" json:"id"`
	Title     string             `bson:"title" json:"title"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"-"` // User who owns this trip
	CreatedAt time.Time          `bson:"createdAt" json:"-"`
}
