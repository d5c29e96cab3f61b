package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/internal/embedding"
	"github.com/hyperjump/ingestd/internal/extract"
	"github.com/hyperjump/ingestd/internal/fetch"
	"github.com/hyperjump/ingestd/internal/indexer"
	"github.com/hyperjump/ingestd/internal/ingest"
	"github.com/hyperjump/ingestd/internal/storage"
	"github.com/hyperjump/ingestd/internal/tempstore"
	"github.com/hyperjump/ingestd/internal/vector"
)

// Components holds the wired pipeline and the resources it owns.
type Components struct {
	Embedder embedding.Embedder
	Store    *storage.IndexStore
	Indexer  *indexer.Indexer
	Pipeline *ingest.Pipeline
}

// Close releases the embedder.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// indexType returns the configured vector index type, falling back to the
// flat memory index when FAISS support is not compiled in.
func indexType(cfg *config.Config, logger *zap.Logger) string {
	if cfg.Index.Type == string(vector.IndexTypeFAISS) && !vector.IsFAISSAvailable() {
		logger.Warn("FAISS not available in this build, falling back to memory index",
			zap.String("requested_type", cfg.Index.Type))
		return string(vector.IndexTypeMemory)
	}
	return cfg.Index.Type
}

// newIndexStore returns the snapshot store for cfg without loading an embedder.
func newIndexStore(cfg *config.Config, logger *zap.Logger) *storage.IndexStore {
	return storage.NewIndexStore(cfg.Index.Path, indexType(cfg, logger), cfg.Embedding.Dimensions, logger)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if embedder.Dimensions() != cfg.Embedding.Dimensions {
		_ = embedder.Close()
		return nil, fmt.Errorf("embedder %s produces %d dimensions, config says %d",
			embedder.ModelName(), embedder.Dimensions(), cfg.Embedding.Dimensions)
	}
	logger.Info("embedder initialized",
		zap.String("model", embedder.ModelName()),
		zap.Int("dimensions", embedder.Dimensions()))

	chunker, err := indexer.NewChunker(cfg.Chunking)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	store := newIndexStore(cfg, logger)
	logger.Info("index store initialized",
		zap.String("path", store.Dir()),
		zap.String("type", indexType(cfg, zap.NewNop())),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()))

	idx := indexer.NewIndexer(embedder, store,
		indexer.WithLogger(logger),
		indexer.WithTimeouts(cfg.Embedding.Timeout, cfg.Index.Timeout))

	pipeline := ingest.NewPipeline(
		fetch.New(cfg.Fetch, fetch.WithLogger(logger)),
		tempstore.New(cfg.Extract.TempDir, logger),
		extract.NewExtractor(),
		chunker,
		idx,
		ingest.WithLogger(logger),
		ingest.WithStageTimeouts(cfg.Fetch.Timeout, cfg.Extract.Timeout),
	)

	return &Components{
		Embedder: embedder,
		Store:    store,
		Indexer:  idx,
		Pipeline: pipeline,
	}, nil
}
