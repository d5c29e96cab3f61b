// Package tempstore stages downloaded payloads as request-exclusive temp files.
package tempstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/hyperjump/ingestd/internal/models"
	"go.uber.org/zap"
)

// DefaultExt is used when a payload carries no extension hint.
const DefaultExt = ".pdf"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Store creates temp files in a single directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New returns a store writing to dir, or to the OS temp dir when dir is empty.
func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory temp files are created in.
func (s *Store) Dir() string {
	if s.dir == "" {
		return os.TempDir()
	}
	return s.dir
}

// Pattern returns the glob matching every temp file created for requestID.
func (s *Store) Pattern(requestID string) string {
	return filepath.Join(s.Dir(), prefix(requestID)+"*")
}

// TempFile is a staged payload. Remove must be called on every exit path.
type TempFile struct {
	Path   string
	once   sync.Once
	err    error
	logger *zap.Logger
}

// Write creates a uniquely named file ending in the payload's extension hint
// and writes the payload bytes to it. On failure no file is left behind.
func (s *Store) Write(requestID string, payload *models.Payload) (*TempFile, error) {
	ext := payload.Ext
	if ext == "" {
		ext = DefaultExt
	}
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
	}
	f, err := os.CreateTemp(s.dir, prefix(requestID)+"*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tf := &TempFile{Path: f.Name(), logger: s.logger}

	_, werr := f.Write(payload.Data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = tf.Remove()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	s.logger.Debug("temp file written", zap.String("path", tf.Path), zap.Int("bytes", len(payload.Data)))
	return tf, nil
}

// Remove deletes the file. Only the first call does any work; later calls
// return the first result. A file that is already gone is not an error.
func (t *TempFile) Remove() error {
	t.once.Do(func() {
		err := os.Remove(t.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			t.err = fmt.Errorf("remove temp file: %w", err)
			return
		}
		if t.logger != nil {
			t.logger.Debug("temp file removed", zap.String("path", t.Path))
		}
	})
	return t.err
}

// prefix turns requestID into a file name prefix. chi request IDs contain
// slashes, which CreateTemp rejects.
func prefix(requestID string) string {
	if requestID == "" {
		return "ingest-"
	}
	return "ingest-" + unsafeName.ReplaceAllString(requestID, "_") + "-"
}
