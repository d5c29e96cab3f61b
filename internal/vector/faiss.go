//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	faiss "github.com/blevesearch/go-faiss"
)

// FAISS file extensions appended to the base path by FAISSIndex.Save.
const (
	FAISSFileExt      = ".faiss"
	FAISSIDMapFileExt = ".idmap"
)

// FAISSIndex wraps a FAISS IndexFlatIP. Inner product over unit vectors is
// cosine similarity. FAISS labels are insertion positions, so chunk IDs are a slice.
type FAISSIndex struct {
	index      faiss.Index
	dimensions int
	ids        []string // FAISS label -> chunk ID
	mu         sync.RWMutex
}

// NewFAISSIndex creates a flat inner-product FAISS index with the given dimension.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	index, err := faiss.NewIndexFlatIP(dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to create FAISS index: %w", err)
	}
	return &FAISSIndex{index: index, dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}

// Add appends vectors with the given IDs.
func (f *FAISSIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := checkBatch(ids, vectors, f.dimensions); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	flat := make([]float32, 0, len(vectors)*f.dimensions)
	for _, vec := range vectors {
		flat = append(flat, vec...)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index == nil {
		return ErrClosed
	}
	if err := f.index.Add(flat); err != nil {
		return fmt.Errorf("failed to add vectors to FAISS index: %w", err)
	}
	f.ids = append(f.ids, ids...)
	return nil
}

// Search returns the top-k vectors by inner product.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != f.dimensions {
		return nil, DimensionError{Expected: f.dimensions, Got: len(query)}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return nil, ErrClosed
	}
	ntotal := int(f.index.Ntotal())
	if k <= 0 || ntotal == 0 {
		return nil, nil
	}
	if k > ntotal {
		k = ntotal
	}
	distances, labels, err := f.index.Search(query, int64(k))
	if err != nil {
		return nil, fmt.Errorf("FAISS search failed: %w", err)
	}
	results := make([]*VectorResult, 0, len(labels))
	for i, label := range labels {
		if label < 0 || int(label) >= len(f.ids) {
			continue
		}
		results = append(results, &VectorResult{ID: f.ids[label], Score: float64(distances[i])})
	}
	return results, nil
}

// Save writes the FAISS index to base+".faiss" and the chunk IDs to base+".idmap".
func (f *FAISSIndex) Save(base string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return ErrClosed
	}
	if err := faiss.WriteIndex(f.index, base+FAISSFileExt); err != nil {
		return fmt.Errorf("write FAISS index: %w", err)
	}
	mf, err := os.Create(base + FAISSIDMapFileExt)
	if err != nil {
		return fmt.Errorf("create id map: %w", err)
	}
	if err := gob.NewEncoder(mf).Encode(f.ids); err != nil {
		mf.Close()
		return fmt.Errorf("encode id map: %w", err)
	}
	return mf.Close()
}

// Load replaces the index with the one saved at base.
func (f *FAISSIndex) Load(base string) error {
	if _, err := os.Stat(base + FAISSFileExt); err != nil {
		return fmt.Errorf("stat FAISS index: %w", err)
	}
	mf, err := os.Open(base + FAISSIDMapFileExt)
	if err != nil {
		return fmt.Errorf("open id map: %w", err)
	}
	var ids []string
	err = gob.NewDecoder(mf).Decode(&ids)
	mf.Close()
	if err != nil {
		return fmt.Errorf("decode id map: %w", err)
	}

	loaded, err := faiss.ReadIndex(base+FAISSFileExt, 0)
	if err != nil {
		return fmt.Errorf("read FAISS index: %w", err)
	}
	if loaded.D() != f.dimensions {
		loaded.Close()
		return DimensionError{Expected: f.dimensions, Got: loaded.D()}
	}
	if int(loaded.Ntotal()) != len(ids) {
		loaded.Close()
		return fmt.Errorf("FAISS index has %d vectors but id map lists %d", loaded.Ntotal(), len(ids))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		f.index.Close()
	}
	f.index, f.ids = loaded, ids
	return nil
}

// Size returns the number of vectors in the index.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Close frees the FAISS index.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		f.index.Close()
		f.index = nil
	}
	return nil
}
