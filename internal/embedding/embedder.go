// Package embedding turns chunk text into fixed-dimension vectors.
package embedding

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/ingestd/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted in embedding.provider.
const (
	ProviderONNX   = "onnx"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// ModelName identifies the model in the index manifest.
	ModelName() string
	Close() error
}

// New builds the embedder selected by cfg.Provider and wraps it in an LRU
// cache when cfg.CacheSize is positive. A provider that cannot load is an
// error; the mock embedder is only used when asked for by name.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var base Embedder
	switch cfg.Provider {
	case ProviderONNX, "":
		tokenizerPath := cfg.TokenizerPath
		if tokenizerPath == "" {
			tokenizerPath = filepath.Join(filepath.Dir(cfg.ModelPath), "tokenizer.json")
		}
		onnx, err := NewONNXEmbedder(cfg.ModelPath, tokenizerPath, cfg.ModelName, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("onnx embedder (model %s): %w", cfg.ModelPath, err)
		}
		base = onnx
	case ProviderOllama:
		ollama, err := NewOllamaEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		base = ollama
	case ProviderMock:
		logger.Warn("using mock embedder, vectors carry no meaning")
		base = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CacheSize <= 0 {
		return base, nil
	}
	cached, err := NewCachedEmbedder(base, cfg.CacheSize)
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	return cached, nil
}

// embedEach runs embed for every text in order, stopping at the first error or
// when ctx is done.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
