package indexer

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperjump/ingestd/internal/config"
)

func defaultChunker(t *testing.T) *Chunker {
	t.Helper()
	c, err := NewChunker(config.ChunkingConfig{ChunkSize: 500, ChunkOverlap: 50})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// numberedWords returns n distinct space-separated words of equal length.
func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%04d", i)
	}
	return strings.Join(words, " ")
}

func TestNewChunker_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ChunkingConfig
	}{
		{"zero size", config.ChunkingConfig{ChunkSize: 0, ChunkOverlap: 0}},
		{"negative size", config.ChunkingConfig{ChunkSize: -1, ChunkOverlap: 0}},
		{"negative overlap", config.ChunkingConfig{ChunkSize: 100, ChunkOverlap: -1}},
		{"overlap equals size", config.ChunkingConfig{ChunkSize: 100, ChunkOverlap: 100}},
		{"overlap exceeds size", config.ChunkingConfig{ChunkSize: 100, ChunkOverlap: 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewChunker(tt.cfg); err == nil {
				t.Errorf("NewChunker(%+v) expected error", tt.cfg)
			}
		})
	}
}

func TestChunker_Split(t *testing.T) {
	c := defaultChunker(t)
	text := numberedWords(150) // 1349 characters
	parts, err := c.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(parts))
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > 500 {
			t.Errorf("chunk %d has %d runes, max 500", i, n)
		}
		if p == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	for i := 1; i < len(parts); i++ {
		first := strings.Fields(parts[i])[0]
		if !strings.Contains(parts[i-1], first) {
			t.Errorf("chunk %d does not overlap chunk %d: %q not in previous", i, i-1, first)
		}
	}
	if !strings.HasPrefix(parts[0], "word0000") {
		t.Errorf("first chunk should start the document, got %q", parts[0][:20])
	}
	if !strings.HasSuffix(parts[len(parts)-1], "word0149") {
		t.Errorf("last chunk should end the document")
	}
}

func TestChunker_SplitShortText(t *testing.T) {
	c := defaultChunker(t)
	parts, err := c.Split("A short policy document.")
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0] != "A short policy document." {
		t.Errorf("Split(short) = %q, want one unchanged chunk", parts)
	}
}

func TestChunker_SplitPrefersParagraphs(t *testing.T) {
	c, err := NewChunker(config.ChunkingConfig{ChunkSize: 40, ChunkOverlap: 0})
	if err != nil {
		t.Fatal(err)
	}
	parts, err := c.Split("first paragraph here\n\nsecond paragraph here")
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(parts), parts)
	}
	if parts[0] != "first paragraph here" || parts[1] != "second paragraph here" {
		t.Errorf("unexpected split %q", parts)
	}
}

func TestChunker_SplitDeterministic(t *testing.T) {
	c := defaultChunker(t)
	text := numberedWords(300)
	a, err := c.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(a, "\x00") != strings.Join(b, "\x00") {
		t.Error("Split should be deterministic")
	}
}

func TestChunker_SplitEmpty(t *testing.T) {
	c := defaultChunker(t)
	for _, text := range []string{"", "   \n\t  "} {
		parts, err := c.Split(text)
		if err != nil {
			t.Fatalf("Split(%q) error: %v", text, err)
		}
		if parts != nil {
			t.Errorf("Split(%q) = %q, want nil", text, parts)
		}
	}
}

func TestChunker_Chunk(t *testing.T) {
	c := defaultChunker(t)
	chunks, err := c.Chunk("url:abc", numberedWords(150))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != "url:abc" {
			t.Errorf("chunk %d DocumentID=%s", i, ch.DocumentID)
		}
		if ch.Position != i {
			t.Errorf("chunk %d Position=%d", i, ch.Position)
		}
		if ch.ID == "" {
			t.Error("chunk ID should be set")
		}
	}
}
