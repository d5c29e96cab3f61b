// Package models defines core data structures for ingestion requests, payloads, and chunks.
package models

import (
	"strings"
	"time"
)

// IngestRequest is the body of an ingestion request.
type IngestRequest struct {
	// Documents is the URL of the document to ingest.
	Documents string `json:"documents"`
	// Questions is accepted for compatibility with existing clients and not consumed.
	Questions []string `json:"questions"`
}

// Validate trims the document URL and reports whether it is present.
func (r *IngestRequest) Validate() error {
	r.Documents = strings.TrimSpace(r.Documents)
	if r.Documents == "" {
		return ErrMissingDocuments
	}
	return nil
}

// IngestResponse is returned when a document has been indexed.
type IngestResponse struct {
	Message   string `json:"message"`
	Chunks    int    `json:"chunks"`
	IndexPath string `json:"index_path"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse is returned when a request fails. Stage is empty for request validation errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// Payload is a downloaded document before it is handed to extraction.
type Payload struct {
	URL         string
	Data        []byte
	ContentType string
	// Ext is the file extension hint (with leading dot), taken from the URL
	// path or, failing that, detected from the body and Content-Type.
	Ext string
}

// Chunk is one segment of extracted text, in document order.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Position   int       `json:"position" db:"position"`
	Content    string    `json:"content" db:"content"`
	Embedding  []float32 `json:"-" db:"embedding"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
