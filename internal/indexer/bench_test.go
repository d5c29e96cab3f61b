package indexer

import (
	"testing"

	"github.com/hyperjump/ingestd/internal/config"
)

func BenchmarkChunker_Split(b *testing.B) {
	c, err := NewChunker(config.ChunkingConfig{ChunkSize: 500, ChunkOverlap: 50})
	if err != nil {
		b.Fatal(err)
	}
	text := numberedWords(5000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Split(text)
	}
}
