// Package storage persists index snapshots: vectors, a chunk docstore, a
// keyword sidecar and a manifest, swapped into place atomically.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/ingestd/internal/models"
)

// ErrNoSnapshot is returned when the index directory holds no snapshot.
var ErrNoSnapshot = errors.New("no index snapshot")

// ChunkStore defines chunk persistence operations.
type ChunkStore interface {
	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	// ListChunks returns all chunks ordered by document and position, embeddings included.
	ListChunks(ctx context.Context) ([]*models.Chunk, error)
	CountChunks(ctx context.Context) (int64, error)
	Close() error
}
