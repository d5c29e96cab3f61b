package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/pkg/utils"
	"github.com/tmc/langchaingo/llms/ollama"
)

// embeddingCreator is the part of a langchaingo LLM client used for embeddings.
type embeddingCreator interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// OllamaEmbedder requests embeddings from an Ollama server.
type OllamaEmbedder struct {
	client     embeddingCreator
	model      string
	dimensions int
}

// NewOllamaEmbedder connects to cfg.OllamaURL using cfg.ModelName. The server is
// not contacted until the first embedding request.
func NewOllamaEmbedder(cfg config.EmbeddingConfig) (*OllamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithModel(cfg.ModelName),
		ollama.WithServerURL(cfg.OllamaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	return newOllamaEmbedder(llm, cfg.ModelName, cfg.Dimensions), nil
}

func newOllamaEmbedder(client embeddingCreator, model string, dimensions int) *OllamaEmbedder {
	return &OllamaEmbedder{client: client, model: model, dimensions: dimensions}
}

// Embed returns the embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch sends all texts in one request. Every returned vector must have
// the configured dimensions; vectors are L2-normalised.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(embeddings), len(texts))
	}
	for i, emb := range embeddings {
		if len(emb) != e.dimensions {
			return nil, fmt.Errorf("ollama model %s returned %d dimensions, want %d", e.model, len(emb), e.dimensions)
		}
		utils.NormalizeL2(embeddings[i])
	}
	return embeddings, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the Ollama model name.
func (e *OllamaEmbedder) ModelName() string {
	return e.model
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OllamaEmbedder) Close() error {
	return nil
}
