// Package ingest runs the download, extract, chunk, embed and persist pipeline
// for a single document.
package ingest

import (
	"context"
	"time"

	"github.com/hyperjump/ingestd/internal/docid"
	"github.com/hyperjump/ingestd/internal/extract"
	"github.com/hyperjump/ingestd/internal/indexer"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"github.com/hyperjump/ingestd/internal/tempstore"
	"go.uber.org/zap"
)

// Fetcher downloads a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.Payload, error)
}

// State is a step of the per-request state machine.
type State string

const (
	StateReceived   State = "RECEIVED"
	StateFetching   State = "FETCHING"
	StateExtracting State = "EXTRACTING"
	StateChunking   State = "CHUNKING"
	StateEmbedding  State = "EMBEDDING"
	StateIndexing   State = "INDEXING"
	StatePersisted  State = "PERSISTED"
	StateFailed     State = "FAILED"
)

// Result describes a persisted ingestion.
type Result struct {
	RequestID  string
	DocumentID string
	Chunks     int
	IndexPath  string
	Manifest   *storage.Manifest
}

// Pipeline wires the stages together. A Pipeline is safe for concurrent use;
// persistence is serialised by the index store.
type Pipeline struct {
	fetcher        Fetcher
	temp           *tempstore.Store
	extractor      extract.TextExtractor
	chunker        *indexer.Chunker
	indexer        *indexer.Indexer
	fetchTimeout   time.Duration
	extractTimeout time.Duration
	logger         *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithStageTimeouts bounds the fetch and extract stages. Embedding and
// persistence are bounded by the indexer. Zero means no bound.
func WithStageTimeouts(fetch, extract time.Duration) Option {
	return func(p *Pipeline) {
		p.fetchTimeout = fetch
		p.extractTimeout = extract
	}
}

// NewPipeline creates a pipeline from its stages.
func NewPipeline(
	fetcher Fetcher,
	temp *tempstore.Store,
	extractor extract.TextExtractor,
	chunker *indexer.Chunker,
	idx *indexer.Indexer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		fetcher:   fetcher,
		temp:      temp,
		extractor: extractor,
		chunker:   chunker,
		indexer:   idx,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IndexPath returns the snapshot directory the pipeline persists to.
func (p *Pipeline) IndexPath() string {
	return p.indexer.Store().Dir()
}

// Run ingests req.Documents and replaces the index snapshot. Every failure is
// returned as a *StageError; the previous snapshot is then left untouched and
// no temp file remains.
func (p *Pipeline) Run(ctx context.Context, requestID string, req *models.IngestRequest) (*Result, error) {
	start := time.Now()
	logger := p.logger.With(zap.String("request_id", requestID), zap.String("url", req.Documents))
	state := StateReceived
	logger.Info("ingest request received", zap.Int("questions", len(req.Questions)))

	advance := func(next State) {
		logger.Debug("ingest state", zap.String("from", string(state)), zap.String("to", string(next)))
		state = next
	}
	fail := func(err *StageError) (*Result, error) {
		from := state
		state = StateFailed
		logger.Warn("ingest failed",
			zap.String("state", string(from)),
			zap.String("stage", string(err.Stage)),
			zap.Duration("took", time.Since(start)),
			zap.Error(err.Err))
		return nil, err
	}

	advance(StateFetching)
	payload, err := p.fetch(ctx, req.Documents)
	if err != nil {
		return fail(stageError(StageFetch, err))
	}

	advance(StateExtracting)
	text, serr := p.extractText(ctx, requestID, payload, logger)
	if serr != nil {
		return fail(serr)
	}

	advance(StateChunking)
	documentID := docid.DocumentID(payload.URL)
	chunks, err := p.chunker.Chunk(documentID, text)
	if err != nil {
		return fail(stageError(StageChunk, err))
	}
	if len(chunks) == 0 {
		return fail(stageError(StageChunk, ErrNoText))
	}

	advance(StateEmbedding)
	if err := p.indexer.Embed(ctx, chunks); err != nil {
		return fail(stageError(StageEmbed, err))
	}

	advance(StateIndexing)
	manifest, err := p.indexer.Persist(ctx, chunks, storage.Meta{
		SourceURL:    payload.URL,
		DocumentID:   documentID,
		RequestID:    requestID,
		ChunkSize:    p.chunker.ChunkSize(),
		ChunkOverlap: p.chunker.ChunkOverlap(),
	})
	if err != nil {
		return fail(stageError(StageIndex, err))
	}

	advance(StatePersisted)
	logger.Info("ingest completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("text_chars", len([]rune(text))),
		zap.Duration("took", time.Since(start)))
	return &Result{
		RequestID:  requestID,
		DocumentID: documentID,
		Chunks:     len(chunks),
		IndexPath:  p.IndexPath(),
		Manifest:   manifest,
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context, url string) (*models.Payload, error) {
	ctx, cancel := withOptionalTimeout(ctx, p.fetchTimeout)
	defer cancel()
	return p.fetcher.Fetch(ctx, url)
}

// extractText stages the payload in a temp file and extracts it. The temp
// file is removed before returning, whatever the outcome.
func (p *Pipeline) extractText(ctx context.Context, requestID string, payload *models.Payload, logger *zap.Logger) (text string, serr *StageError) {
	tf, err := p.temp.Write(requestID, payload)
	if err != nil {
		return "", stageError(StageExtract, err)
	}
	defer func() {
		if err := tf.Remove(); err != nil {
			logger.Warn("failed to remove temp file", zap.String("path", tf.Path), zap.Error(err))
		}
	}()

	ctx, cancel := withOptionalTimeout(ctx, p.extractTimeout)
	defer cancel()
	text, err = p.extractor.Extract(ctx, tf.Path)
	if err != nil {
		return "", stageError(StageExtract, err)
	}
	return text, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
