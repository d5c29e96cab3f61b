package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/ingestd/internal/docid"
	"github.com/hyperjump/ingestd/internal/embedding"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"github.com/hyperjump/ingestd/internal/vector"
)

// stubEmbedder returns fixed vectors regardless of input.
type stubEmbedder struct {
	dims    int
	vectors [][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not used")
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *stubEmbedder) Dimensions() int   { return s.dims }
func (s *stubEmbedder) ModelName() string { return "stub" }
func (s *stubEmbedder) Close() error      { return nil }

func testIndexer(t *testing.T, emb embedding.Embedder) *Indexer {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "faiss_index")
	store := storage.NewIndexStore(dir, string(vector.IndexTypeMemory), emb.Dimensions(), nil)
	return NewIndexer(emb, store)
}

// textChunks wraps texts as unembedded chunks of documentID.
func textChunks(documentID string, texts ...string) []*models.Chunk {
	chunks := make([]*models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &models.Chunk{
			ID:         docid.ChunkID(documentID, i),
			DocumentID: documentID,
			Position:   i,
			Content:    text,
		}
	}
	return chunks
}

func TestIndexer_Embed(t *testing.T) {
	idx := testIndexer(t, embedding.NewMockEmbedder(16))
	docID := docid.DocumentID("https://example.com/a.pdf")
	chunks := textChunks(docID, "alpha", "beta", "gamma")

	if err := idx.Embed(context.Background(), chunks); err != nil {
		t.Fatal(err)
	}
	want, err := embedding.NewMockEmbedder(16).Embed(context.Background(), "beta")
	if err != nil {
		t.Fatal(err)
	}
	for i, ch := range chunks {
		if len(ch.Embedding) != 16 {
			t.Errorf("chunk %d embedding has %d dims", i, len(ch.Embedding))
		}
		if ch.CreatedAt.IsZero() {
			t.Errorf("chunk %d CreatedAt not set", i)
		}
	}
	for j := range want {
		if chunks[1].Embedding[j] != want[j] {
			t.Fatalf("chunk 1 embedding differs at %d: %v vs %v", j, chunks[1].Embedding[j], want[j])
		}
	}
}

func TestIndexer_EmbedMismatch(t *testing.T) {
	tests := []struct {
		name string
		emb  *stubEmbedder
		want string
	}{
		{
			name: "too few vectors",
			emb:  &stubEmbedder{dims: 2, vectors: [][]float32{{1, 0}}},
			want: "returned 1 vectors for 2 texts",
		},
		{
			name: "wrong dimension",
			emb:  &stubEmbedder{dims: 2, vectors: [][]float32{{1, 0}, {1, 0, 0}}},
			want: "dimension 3, want 2",
		},
		{
			name: "embedder error",
			emb:  &stubEmbedder{dims: 2, err: errors.New("model crashed")},
			want: "model crashed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := testIndexer(t, tt.emb)
			chunks := textChunks("url:x", "a", "b")
			err := idx.Embed(context.Background(), chunks)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Embed error = %v, want containing %q", err, tt.want)
			}
			for _, ch := range chunks {
				if ch.Embedding != nil {
					t.Errorf("chunk %s modified on failure", ch.ID)
				}
			}
		})
	}
}

func TestIndexer_EmbedNoTexts(t *testing.T) {
	idx := testIndexer(t, embedding.NewMockEmbedder(4))
	if err := idx.Embed(context.Background(), nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestIndexer_Persist(t *testing.T) {
	idx := testIndexer(t, embedding.NewMockEmbedder(16))
	ctx := context.Background()
	docID := docid.DocumentID("https://example.com/a.pdf")
	chunks := textChunks(docID, "grace period", "waiting period", "room rent")
	if err := idx.Embed(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	manifest, err := idx.Persist(ctx, chunks, storage.Meta{SourceURL: "https://example.com/a.pdf", DocumentID: docID})
	if err != nil {
		t.Fatal(err)
	}
	if manifest.ChunkCount != 3 {
		t.Errorf("ChunkCount=%d, want 3", manifest.ChunkCount)
	}
	if manifest.Model != "mock" {
		t.Errorf("Model=%q, want mock", manifest.Model)
	}

	snap, err := idx.Store().Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer snap.Close()
	if snap.VectorCount() != 3 {
		t.Errorf("VectorCount=%d, want 3", snap.VectorCount())
	}
	report, err := snap.VerifySelfMatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Errorf("self-match failed: %+v", report)
	}
}
