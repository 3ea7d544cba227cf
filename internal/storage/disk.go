package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// diskStorage implements the FileStorage interface on the local filesystem.
// This mirrors the development setup where uploads land in a relative
// directory next to the server binary.
type diskStorage struct {
	rootDir string
}

// NewDiskStorage creates a disk-backed storage rooted at rootDir.
// The directory is created if absent; this runs once at process start.
func NewDiskStorage(rootDir string) (FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("disk storage root directory is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %w", rootDir, err)
	}
	log.Printf("Disk storage initialized at: %s", rootDir)
	return &diskStorage{rootDir: rootDir}, nil
}

// Save writes the object bytes under rootDir/objectKey and returns the path.
// The key is flattened to its base name so a crafted filename cannot escape
// the upload directory.
func (s *diskStorage) Save(ctx context.Context, objectKey string, contentType string, size int64, r io.Reader) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("object key is required")
	}
	dest := filepath.Join(s.rootDir, filepath.Base(objectKey))

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %q: %w", dest, err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Remove the partial file so a retry under the same key starts clean
		_ = os.Remove(dest)
		return "", fmt.Errorf("failed to write %q: %w", dest, err)
	}

	if size > 0 && written != size {
		_ = os.Remove(dest)
		return "", fmt.Errorf("short write for %q: got %d bytes, want %d", dest, written, size)
	}

	return dest, nil
}

// Delete removes an object from the upload directory.
func (s *diskStorage) Delete(ctx context.Context, objectKey string) error {
	dest := filepath.Join(s.rootDir, filepath.Base(objectKey))
	if err := os.Remove(dest); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
