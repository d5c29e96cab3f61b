package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"
	"github.com/hyperjump/ingestd/internal/keyword"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/vector"
	"go.uber.org/zap"
)

// Snapshot layout inside the index directory.
const (
	ManifestFile = "manifest.json"
	DocStoreFile = "docstore.db"
	KeywordDir   = "keyword.bleve"
	// VectorBase is the base name passed to VectorIndex.Save; backends add their extensions.
	VectorBase = "index"

	manifestVersion = 1
)

// Meta describes the ingestion that produced a snapshot.
type Meta struct {
	SourceURL    string
	DocumentID   string
	RequestID    string
	Model        string
	ChunkSize    int
	ChunkOverlap int
}

// Manifest is written to manifest.json in every snapshot.
type Manifest struct {
	Version      int       `json:"version"`
	IndexType    string    `json:"index_type"`
	Dimensions   int       `json:"dimensions"`
	Model        string    `json:"model"`
	ChunkCount   int       `json:"chunk_count"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	SourceURL    string    `json:"source_url"`
	DocumentID   string    `json:"document_id"`
	RequestID    string    `json:"request_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Files        []string  `json:"files"`
}

// IndexStore owns the index directory. Replace builds a complete snapshot in
// a staging directory next to it and renames it into place, so readers see
// either the previous snapshot or the new one. Writers are serialised within
// the process by a mutex and across processes by a lock file.
type IndexStore struct {
	dir        string
	indexType  string
	dimensions int
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewIndexStore returns a store for the snapshot directory dir. New snapshots
// use indexType with vectors of the given dimensions.
func NewIndexStore(dir, indexType string, dimensions int, logger *zap.Logger) *IndexStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexStore{
		dir:        filepath.Clean(dir),
		indexType:  indexType,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Dir returns the snapshot directory.
func (s *IndexStore) Dir() string {
	return s.dir
}

// Replace persists chunks, with their embeddings, as the new snapshot. On any
// error the previous snapshot is left untouched and the staging directory is removed.
func (s *IndexStore) Replace(ctx context.Context, chunks []*models.Chunk, meta Meta) (*Manifest, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to persist")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent := filepath.Dir(s.dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("create index parent dir: %w", err)
	}
	fl, err := acquireLock(ctx, lockPath(s.dir), false)
	if err != nil {
		return nil, err
	}
	defer fl.Unlock()

	staging := s.siblingPath("tmp")
	if err := os.Mkdir(staging, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	manifest, err := s.build(ctx, staging, chunks, meta)
	if err == nil {
		// Do not publish a snapshot for a request that has already been abandoned.
		err = ctx.Err()
	}
	if err == nil {
		err = s.swap(staging)
	}
	if err != nil {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			s.logger.Warn("failed to remove staging dir", zap.String("path", staging), zap.Error(rmErr))
		}
		return nil, err
	}

	s.logger.Info("index snapshot replaced",
		zap.String("path", s.dir),
		zap.String("index_type", manifest.IndexType),
		zap.Int("chunks", manifest.ChunkCount))
	return manifest, nil
}

// siblingPath returns a unique hidden path next to the snapshot directory.
func (s *IndexStore) siblingPath(kind string) string {
	return filepath.Join(filepath.Dir(s.dir), fmt.Sprintf(".%s.%s-%s", filepath.Base(s.dir), kind, uuid.New().String()))
}

// build writes every snapshot file into dir.
func (s *IndexStore) build(ctx context.Context, dir string, chunks []*models.Chunk, meta Meta) (*Manifest, error) {
	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		vectors[i] = ch.Embedding
	}

	vecIndex, err := vector.NewVectorIndex(s.indexType, s.dimensions)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}
	defer vecIndex.Close()
	if err := vecIndex.Add(ctx, ids, vectors); err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	if err := vecIndex.Save(filepath.Join(dir, VectorBase)); err != nil {
		return nil, fmt.Errorf("save vector index: %w", err)
	}

	if err := writeDocStore(ctx, filepath.Join(dir, DocStoreFile), chunks); err != nil {
		return nil, err
	}
	if err := writeKeywordIndex(ctx, filepath.Join(dir, KeywordDir), chunks); err != nil {
		return nil, err
	}

	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	manifest := &Manifest{
		Version:      manifestVersion,
		IndexType:    vecIndex.Type(),
		Dimensions:   s.dimensions,
		Model:        meta.Model,
		ChunkCount:   len(chunks),
		ChunkSize:    meta.ChunkSize,
		ChunkOverlap: meta.ChunkOverlap,
		SourceURL:    meta.SourceURL,
		DocumentID:   meta.DocumentID,
		RequestID:    meta.RequestID,
		CreatedAt:    time.Now().UTC(),
		Files:        append(files, ManifestFile),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

func writeDocStore(ctx context.Context, path string, chunks []*models.Chunk) error {
	docs, err := NewSQLiteStore(path)
	if err != nil {
		return fmt.Errorf("create docstore: %w", err)
	}
	if err := docs.BatchCreateChunks(ctx, chunks); err != nil {
		_ = docs.Close()
		return fmt.Errorf("write docstore: %w", err)
	}
	if err := docs.Close(); err != nil {
		return fmt.Errorf("close docstore: %w", err)
	}
	return nil
}

func writeKeywordIndex(ctx context.Context, path string, chunks []*models.Chunk) error {
	kw, err := keyword.NewBleveIndex(path)
	if err != nil {
		return fmt.Errorf("create keyword index: %w", err)
	}
	if err := kw.IndexChunks(ctx, chunks); err != nil {
		_ = kw.Close()
		return fmt.Errorf("write keyword index: %w", err)
	}
	if err := kw.Close(); err != nil {
		return fmt.Errorf("close keyword index: %w", err)
	}
	return nil
}

// listFiles returns the sorted top-level entry names of dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// swap moves staging into place. The previous snapshot is renamed aside first
// and restored if the second rename fails.
func (s *IndexStore) swap(staging string) error {
	var old string
	if _, err := os.Lstat(s.dir); err == nil {
		old = s.siblingPath("old")
		if err := os.Rename(s.dir, old); err != nil {
			return fmt.Errorf("move previous snapshot aside: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat index dir: %w", err)
	}

	if err := os.Rename(staging, s.dir); err != nil {
		if old != "" {
			if restoreErr := os.Rename(old, s.dir); restoreErr != nil {
				s.logger.Error("failed to restore previous snapshot",
					zap.String("from", old), zap.String("to", s.dir), zap.Error(restoreErr))
			}
		}
		return fmt.Errorf("move snapshot into place: %w", err)
	}

	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			s.logger.Warn("failed to remove previous snapshot", zap.String("path", old), zap.Error(err))
		}
	}
	return nil
}

// Manifest reads the current snapshot's manifest. It returns ErrNoSnapshot
// when the directory or manifest does not exist.
func (s *IndexStore) Manifest() (*Manifest, error) {
	return readManifest(s.dir)
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// DiskUsage returns the size in bytes of the current snapshot.
func (s *IndexStore) DiskUsage() (int64, error) {
	return DiskUsageBytes(s.dir)
}

// Open loads the current snapshot for reading. The index type and dimensions
// come from the manifest, not the store's configuration. Callers must Close
// the returned snapshot.
func (s *IndexStore) Open(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Dir(s.dir)); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	fl, err := acquireLock(ctx, lockPath(s.dir), true)
	if err != nil {
		return nil, err
	}
	defer fl.Unlock()

	manifest, err := readManifest(s.dir)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Manifest: manifest, dir: s.dir}

	snap.vectors, err = vector.NewVectorIndex(manifest.IndexType, manifest.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}
	if err := snap.vectors.Load(filepath.Join(s.dir, VectorBase)); err != nil {
		snap.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	if snap.docs, err = OpenSQLiteStoreReadOnly(filepath.Join(s.dir, DocStoreFile)); err != nil {
		snap.Close()
		return nil, err
	}
	if snap.keywords, err = keyword.OpenBleveIndex(filepath.Join(s.dir, KeywordDir)); err != nil {
		snap.Close()
		return nil, err
	}
	return snap, nil
}
