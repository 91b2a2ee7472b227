// Package storage archives raw statement uploads so a processed import can
// be audited or replayed later.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// StoredFile is the metadata kept alongside an archived upload.
type StoredFile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Path       string    `json:"path"` // Relative storage path
	UploadedAt time.Time `json:"uploaded_at"`
}

// Archive stores raw uploads per user.
type Archive interface {
	// Save archives one upload and returns its metadata.
	Save(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*StoredFile, error)

	// Open returns the archived content and its metadata.
	Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *StoredFile, error)

	// List returns the user's archived uploads.
	List(ctx context.Context, userID uuid.UUID) ([]*StoredFile, error)

	// Remove deletes one archived upload.
	Remove(ctx context.Context, userID, fileID uuid.UUID) error
}
