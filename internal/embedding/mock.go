package embedding

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/hyperjump/ingestd/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. Its vectors carry no meaning.
// Each text is hashed to seed a Gaussian vector, so equal texts get equal
// embeddings and different texts are almost orthogonal in high dimensions.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a unit-length vector derived from the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	r := rand.New(rand.NewSource(int64(h.Sum64())))

	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = float32(r.NormFloat64())
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns "mock".
func (e *MockEmbedder) ModelName() string {
	return ProviderMock
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
