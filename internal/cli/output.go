// Package cli provides output formatting for the ingestd command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"github.com/hyperjump/ingestd/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteIngestResult writes the outcome of a one-shot ingestion. The JSON form
// matches the HTTP API response body.
func WriteIngestResult(w io.Writer, resp *models.IngestResponse, took time.Duration, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintf(w, "%s\n  chunks:     %d\n  index path: %s\n  request id: %s\n  took:       %s\n",
		resp.Message, resp.Chunks, resp.IndexPath, resp.RequestID, took.Round(time.Millisecond))
	return err
}

// WriteIngestError writes a failed ingestion.
func WriteIngestError(w io.Writer, resp *models.ErrorResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if resp.Stage == "" {
		_, err := fmt.Fprintf(w, "error: %s\n", resp.Error)
		return err
	}
	_, err := fmt.Fprintf(w, "error [%s]: %s\n", resp.Stage, resp.Error)
	return err
}

// VerifyReport is the outcome of reloading and checking a snapshot.
type VerifyReport struct {
	Path      string                      `json:"path"`
	Manifest  *storage.Manifest           `json:"manifest"`
	Vectors   int                         `json:"vectors"`
	SelfMatch *storage.SelfMatchReport    `json:"self_match"`
	Keyword   *storage.KeywordProbeReport `json:"keyword_probe"`
	OK        bool                        `json:"ok"`
}

// WriteVerifyReport writes r in the given format.
func WriteVerifyReport(w io.Writer, r *VerifyReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	m := r.Manifest
	fmt.Fprintf(w, "Index: %s\n", r.Path)
	fmt.Fprintf(w, "  source:     %s\n", m.SourceURL)
	fmt.Fprintf(w, "  created:    %s\n", m.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  type:       %s (%d dims, model %s)\n", m.IndexType, m.Dimensions, m.Model)
	fmt.Fprintf(w, "  chunks:     %d (size %d, overlap %d)\n", m.ChunkCount, m.ChunkSize, m.ChunkOverlap)
	fmt.Fprintf(w, "  vectors:    %d\n", r.Vectors)
	if sm := r.SelfMatch; sm != nil {
		fmt.Fprintf(w, "Self-match:   %d/%d top-1\n", sm.Matched, sm.Checked)
		for _, id := range sm.Mismatches {
			fmt.Fprintf(w, "  mismatch:   %s\n", id)
		}
	}
	if kp := r.Keyword; kp != nil {
		fmt.Fprintf(w, "Keyword:      %q -> %d hits, chunk %s found=%t\n",
			utils.Truncate(kp.Query, 40), kp.Hits, kp.ChunkID, kp.Found)
	}
	status := "OK"
	if !r.OK {
		status = "FAILED"
	}
	_, err := fmt.Fprintf(w, "Result:       %s\n", status)
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
