// Package indexer splits extracted text into chunks, embeds them and persists the index.
package indexer

import (
	"fmt"

	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/internal/docid"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunker splits text into overlapping character-bounded chunks, preferring
// paragraph, then line, then word boundaries.
type Chunker struct {
	splitter     textsplitter.RecursiveCharacter
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker from cfg. Sizes are counted in runes.
// It rejects a non-positive size and an overlap outside [0, size).
func NewChunker(cfg config.ChunkingConfig) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	separators := cfg.Separators
	if len(separators) == 0 {
		separators = config.DefaultSeparators()
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators(separators),
		),
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
	}, nil
}

// ChunkSize returns the maximum chunk length in runes.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the maximum overlap between consecutive chunks in runes.
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Split returns the text segments in document order. Empty or
// whitespace-only text yields no segments.
func (c *Chunker) Split(text string) ([]string, error) {
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Chunk splits text and wraps each segment in a Chunk with a deterministic ID.
func (c *Chunker) Chunk(documentID, text string) ([]*models.Chunk, error) {
	parts, err := c.Split(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]*models.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = &models.Chunk{
			ID:         docid.ChunkID(documentID, i),
			DocumentID: documentID,
			Position:   i,
			Content:    p,
		}
	}
	return chunks, nil
}
