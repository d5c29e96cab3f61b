package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/ingestd/internal/embedding"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"go.uber.org/zap"
)

// Indexer embeds chunk text and persists the result as the index snapshot.
type Indexer struct {
	embedder     embedding.Embedder
	store        *storage.IndexStore
	embedTimeout time.Duration
	indexTimeout time.Duration
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithTimeouts bounds the embedding and persistence steps. Zero means no bound
// beyond the caller's context.
func WithTimeouts(embed, index time.Duration) IndexerOption {
	return func(idx *Indexer) {
		idx.embedTimeout = embed
		idx.indexTimeout = index
	}
}

// NewIndexer creates an indexer that embeds with embedder and writes to store.
func NewIndexer(embedder embedding.Embedder, store *storage.IndexStore, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		embedder: embedder,
		store:    store,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Embedder returns the embedder used by the indexer.
func (idx *Indexer) Embedder() embedding.Embedder {
	return idx.embedder
}

// Store returns the snapshot store the indexer writes to.
func (idx *Indexer) Store() *storage.IndexStore {
	return idx.store
}

// Embed attaches a vector to every chunk, in order. It fails if the embedder
// returns the wrong number of vectors or a vector of the wrong dimension, in
// which case no chunk is modified.
func (idx *Indexer) Embed(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to embed")
	}
	ctx, cancel := withOptionalTimeout(ctx, idx.embedTimeout)
	defer cancel()

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	start := time.Now()
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(chunks))
	}
	dims := idx.embedder.Dimensions()
	for i, emb := range embeddings {
		if len(emb) != dims {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(emb), dims)
		}
	}
	now := time.Now().UTC()
	for i, ch := range chunks {
		ch.Embedding = embeddings[i]
		ch.CreatedAt = now
	}
	idx.logger.Debug("indexer embedded chunks",
		zap.String("document_id", chunks[0].DocumentID),
		zap.Int("chunks", len(chunks)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Persist replaces the index snapshot with chunks.
func (idx *Indexer) Persist(ctx context.Context, chunks []*models.Chunk, meta storage.Meta) (*storage.Manifest, error) {
	ctx, cancel := withOptionalTimeout(ctx, idx.indexTimeout)
	defer cancel()

	if meta.Model == "" {
		meta.Model = idx.embedder.ModelName()
	}
	manifest, err := idx.store.Replace(ctx, chunks, meta)
	if err != nil {
		return nil, err
	}
	idx.logger.Debug("indexer persisted snapshot",
		zap.String("path", idx.store.Dir()),
		zap.Int("chunks", manifest.ChunkCount))
	return manifest, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
