// Package vector provides the similarity indexes persisted in an index snapshot.
package vector

import (
	"context"
	"errors"
	"fmt"
)

// VectorIndex stores one vector per chunk ID and answers nearest-neighbour queries.
// Save and Load take a base path; each implementation appends its own file
// extensions so several index types can share a directory layout.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Save(base string) error
	Load(base string) error
	Size() int
	Type() string
	Close() error
}

// VectorResult is a single search hit. Score is cosine similarity for unit vectors; higher is closer.
type VectorResult struct {
	ID    string
	Score float64
}

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("vector index is closed")

// DimensionError reports a vector whose length differs from the index dimension.
type DimensionError struct {
	Expected int
	Got      int
}

func (e DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Expected)
}

// checkBatch validates an Add call's arguments against the index dimension.
func checkBatch(ids []string, vectors [][]float32, dimensions int) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != dimensions {
			return DimensionError{Expected: dimensions, Got: len(v)}
		}
	}
	return nil
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}
