package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses exact brute-force search. Good for a single document's chunks.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeHNSW uses an approximate HNSW graph in pure Go.
	IndexTypeHNSW IndexType = "hnsw"
	// IndexTypeFAISS uses a FAISS flat inner-product index.
	// Requires the FAISS C library and building with -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "memory" (default), "hnsw", "faiss".
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	var (
		idx VectorIndex
		err error
	)
	// Assign through concrete types so a failed constructor yields a nil interface.
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		var m *MemoryIndex
		if m, err = NewMemoryIndex(dimensions); err == nil {
			idx = m
		}
	case IndexTypeHNSW:
		var h *HNSWIndex
		if h, err = NewHNSWIndex(dimensions); err == nil {
			idx = h
		}
	case IndexTypeFAISS:
		var f *FAISSIndex
		if f, err = NewFAISSIndex(dimensions); err == nil {
			idx = f
		}
	default:
		err = fmt.Errorf("unknown index type: %s (supported: memory, hnsw, faiss)", indexType)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
