package storage

import (
	"context"
	"errors"
)

// Category names used across the pipeline.
const (
	CategoryAudio   = "audio"
	CategoryConfigs = "configs"
)

// ErrNotFound indicates the named document does not exist in the backend.
var ErrNotFound = errors.New("document not found")

// Backend is the storage collaborator consumed by the result publisher and
// the metadata synchronizer. Implementations must be safe for concurrent use.
type Backend interface {
	// Upload persists data under name within category and returns the URL
	// clients use to reach it.
	Upload(ctx context.Context, name, category string, data []byte) (string, error)
	// Fetch retrieves the named document from category, or ErrNotFound.
	Fetch(ctx context.Context, name, category string) ([]byte, error)
}
