package storage

import (
	"context"
	"io"
)

// FileStorage defines the interface for persisting uploaded file bytes.
// The metadata record for an object lives in the repository layer; this
// interface only deals with the bytes under an object key.
type FileStorage interface {
	// Save writes the object under objectKey and returns a backend-specific
	// location string (filesystem path, bucket URI, ...). A failed Save must
	// leave no partial object behind that a later Save under the same key
	// could not overwrite.
	Save(ctx context.Context, objectKey string, contentType string, size int64, r io.Reader) (string, error)

	// Delete removes an object from the storage backend.
	Delete(ctx context.Context, objectKey string) error
}
