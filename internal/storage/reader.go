package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperjump/ingestd/internal/keyword"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/vector"
)

// Snapshot is an opened, read-only index snapshot.
type Snapshot struct {
	Manifest *Manifest
	dir      string
	vectors  vector.VectorIndex
	docs     *SQLiteStore
	keywords *keyword.BleveIndex
}

// Dir returns the directory the snapshot was loaded from.
func (sn *Snapshot) Dir() string {
	return sn.dir
}

// VectorCount returns the number of vectors in the similarity index.
func (sn *Snapshot) VectorCount() int {
	return sn.vectors.Size()
}

// Search returns the k chunks nearest to query.
func (sn *Snapshot) Search(ctx context.Context, query []float32, k int) ([]*vector.VectorResult, error) {
	return sn.vectors.Search(ctx, query, k)
}

// KeywordSearch runs a full-text query over chunk content.
func (sn *Snapshot) KeywordSearch(ctx context.Context, query string, limit int) ([]*keyword.KeywordResult, error) {
	return sn.keywords.Search(ctx, query, limit, nil)
}

// Chunks returns every chunk in document order, embeddings included.
func (sn *Snapshot) Chunks(ctx context.Context) ([]*models.Chunk, error) {
	return sn.docs.ListChunks(ctx)
}

// Chunk returns one chunk by ID.
func (sn *Snapshot) Chunk(ctx context.Context, id string) (*models.Chunk, error) {
	return sn.docs.GetChunk(ctx, id)
}

// SelfMatchReport summarises a VerifySelfMatch run.
type SelfMatchReport struct {
	Checked int `json:"checked"`
	Matched int `json:"matched"`
	// Mismatches lists chunk IDs whose own embedding did not return them as top-1.
	Mismatches []string `json:"mismatches,omitempty"`
}

// OK reports whether every chunk matched itself.
func (r *SelfMatchReport) OK() bool {
	return r.Checked > 0 && r.Matched == r.Checked
}

// VerifySelfMatch queries the index with every stored chunk's embedding and
// checks that the top hit is that chunk. A hit on a different chunk with
// identical content counts as a match, since its vector is identical too.
// It fails outright when the vector count differs from the chunk count.
func (sn *Snapshot) VerifySelfMatch(ctx context.Context) (*SelfMatchReport, error) {
	chunks, err := sn.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) != sn.vectors.Size() {
		return nil, fmt.Errorf("snapshot has %d chunks but %d vectors", len(chunks), sn.vectors.Size())
	}
	content := make(map[string]string, len(chunks))
	for _, ch := range chunks {
		content[ch.ID] = ch.Content
	}

	report := &SelfMatchReport{}
	for _, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(ch.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %s has no stored embedding", ch.ID)
		}
		report.Checked++
		hits, err := sn.vectors.Search(ctx, ch.Embedding, 1)
		if err != nil {
			return nil, fmt.Errorf("search chunk %s: %w", ch.ID, err)
		}
		if len(hits) == 1 && (hits[0].ID == ch.ID || content[hits[0].ID] == ch.Content) {
			report.Matched++
			continue
		}
		report.Mismatches = append(report.Mismatches, ch.ID)
	}
	return report, nil
}

// KeywordProbeReport summarises a ProbeKeyword run.
type KeywordProbeReport struct {
	Query   string `json:"query"`
	ChunkID string `json:"chunk_id"`
	Hits    int    `json:"hits"`
	Found   bool   `json:"found"`
}

// ProbeKeyword searches the keyword sidecar for the longest word of the first
// chunk and reports whether that chunk is among the hits.
func (sn *Snapshot) ProbeKeyword(ctx context.Context) (*KeywordProbeReport, error) {
	chunks, err := sn.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, errors.New("snapshot has no chunks")
	}
	first := chunks[0]
	report := &KeywordProbeReport{Query: probeTerm(first.Content), ChunkID: first.ID}
	if report.Query == "" {
		return report, nil
	}
	hits, err := sn.keywords.Search(ctx, report.Query, len(chunks), nil)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	report.Hits = len(hits)
	for _, h := range hits {
		if h.ID == first.ID {
			report.Found = true
			break
		}
	}
	return report, nil
}

// probeTerm returns the longest alphabetic word in s, lowercased.
func probeTerm(s string) string {
	var best string
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if len([]rune(w)) > len([]rune(best)) {
			best = w
		}
	}
	return strings.ToLower(best)
}

// Close releases every open resource of the snapshot.
func (sn *Snapshot) Close() error {
	var errs []error
	if sn.vectors != nil {
		errs = append(errs, sn.vectors.Close())
	}
	if sn.docs != nil {
		errs = append(errs, sn.docs.Close())
	}
	if sn.keywords != nil {
		errs = append(errs, sn.keywords.Close())
	}
	return errors.Join(errs...)
}
