// Package extract provides text extraction from various document formats.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextExtractor turns a document file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Extractor extracts plain text from document files based on their extension.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

var _ TextExtractor = (*Extractor)(nil)

type extractResult struct {
	text string
	err  error
}

// Extract reads the file at path and returns its normalized text content.
// The format is chosen from the file extension; unknown extensions are read as plain text.
// Extract returns ctx.Err() as soon as ctx is done. The parser itself stops at
// its next page, sheet row, slide or document part; the odt, rtf and HTML
// parsers take no context and run to completion in the background.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))

	done := make(chan extractResult, 1)
	go func() {
		text, err := e.ExtractBytes(ctx, content, ext)
		done <- extractResult{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return Normalize(res.text), nil
	}
}

// ExtractBytes extracts raw text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(ctx, content)
	case ".docx":
		return extractDOCX(ctx, content)
	case ".odt", ".rtf":
		return extractWithCat(content)
	case ".xlsx":
		return extractExcel(ctx, content)
	case ".pptx":
		return extractPPTX(ctx, content)
	case ".odp":
		return extractODP(ctx, content)
	case ".ods":
		return extractODS(ctx, content)
	case ".html", ".htm", ".xhtml":
		return extractHTML(content)
	default:
		// .txt, .md, .rst and anything unrecognised
		return extractPlain(content)
	}
}
