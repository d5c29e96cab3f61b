package vector

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
	"github.com/hyperjump/ingestd/pkg/utils"
)

// HNSW file extensions appended to the base path by HNSWIndex.Save.
const (
	HNSWFileExt     = ".hnsw"
	HNSWMetaFileExt = ".hnsw.meta"
)

// HNSWIndex is an approximate nearest-neighbour index on a coder/hnsw graph
// with cosine distance. Graph keys are sequential; chunk IDs are kept alongside.
type HNSWIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int
	ids        []string // graph key -> chunk ID
	closed     bool
}

// hnswMeta is persisted next to the exported graph.
type hnswMeta struct {
	Dimensions int
	IDs        []string
}

// NewHNSWIndex creates an empty HNSW index with the given dimension.
func NewHNSWIndex(dimensions int) (*HNSWIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &HNSWIndex{graph: newGraph(), dimensions: dimensions}, nil
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 64
	g.Ml = 0.25
	return g
}

// Type returns the index type identifier.
func (h *HNSWIndex) Type() string {
	return string(IndexTypeHNSW)
}

// Add inserts normalised copies of vectors.
func (h *HNSWIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if err := checkBatch(ids, vectors, h.dimensions); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for i, id := range ids {
		vec := make([]float32, h.dimensions)
		copy(vec, vectors[i])
		utils.NormalizeL2(vec)
		h.graph.Add(hnsw.MakeNode(uint64(len(h.ids)), vec))
		h.ids = append(h.ids, id)
	}
	return nil
}

// Search returns up to k nearest vectors with Score = 1 - cosine distance.
func (h *HNSWIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != h.dimensions {
		return nil, DimensionError{Expected: h.dimensions, Got: len(query)}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrClosed
	}
	if k <= 0 || h.graph.Len() == 0 {
		return nil, nil
	}
	q := make([]float32, len(query))
	copy(q, query)
	utils.NormalizeL2(q)

	nodes := h.graph.Search(q, k)
	results := make([]*VectorResult, 0, len(nodes))
	for _, node := range nodes {
		if node.Key >= uint64(len(h.ids)) {
			continue
		}
		results = append(results, &VectorResult{
			ID:    h.ids[node.Key],
			Score: 1 - float64(h.graph.Distance(q, node.Value)),
		})
	}
	return results, nil
}

// Save exports the graph to base+".hnsw" and the chunk IDs to base+".hnsw.meta".
func (h *HNSWIndex) Save(base string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}

	f, err := os.Create(base + HNSWFileExt)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := h.graph.Export(w); err != nil {
		f.Close()
		return fmt.Errorf("export graph: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush graph file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close graph file: %w", err)
	}

	mf, err := os.Create(base + HNSWMetaFileExt)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}
	if err := gob.NewEncoder(mf).Encode(hnswMeta{Dimensions: h.dimensions, IDs: h.ids}); err != nil {
		mf.Close()
		return fmt.Errorf("encode metadata: %w", err)
	}
	return mf.Close()
}

// Load replaces the graph and IDs with those saved at base.
func (h *HNSWIndex) Load(base string) error {
	mf, err := os.Open(base + HNSWMetaFileExt)
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	var meta hnswMeta
	err = gob.NewDecoder(mf).Decode(&meta)
	mf.Close()
	if err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	if meta.Dimensions != h.dimensions {
		return DimensionError{Expected: h.dimensions, Got: meta.Dimensions}
	}

	f, err := os.Open(base + HNSWFileExt)
	if err != nil {
		return fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()
	graph := newGraph()
	// Import needs an io.ByteReader.
	if err := graph.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	if graph.Len() != len(meta.IDs) {
		return fmt.Errorf("graph has %d nodes but metadata lists %d ids", graph.Len(), len(meta.IDs))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.graph, h.ids = graph, meta.IDs
	return nil
}

// Size returns the number of vectors in the index.
func (h *HNSWIndex) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ids)
}

// Close releases the graph.
func (h *HNSWIndex) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.graph = nil
	h.ids = nil
	return nil
}
