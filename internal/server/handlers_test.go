package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/internal/embedding"
	"github.com/hyperjump/ingestd/internal/extract"
	"github.com/hyperjump/ingestd/internal/fetch"
	"github.com/hyperjump/ingestd/internal/indexer"
	"github.com/hyperjump/ingestd/internal/ingest"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"github.com/hyperjump/ingestd/internal/tempstore"
	"github.com/hyperjump/ingestd/internal/vector"
)

// stubIngester returns a fixed result or error and records the request.
type stubIngester struct {
	result    *ingest.Result
	err       error
	requestID string
	request   *models.IngestRequest
}

func (s *stubIngester) Run(ctx context.Context, requestID string, req *models.IngestRequest) (*ingest.Result, error) {
	s.requestID = requestID
	s.request = req
	return s.result, s.err
}

func newTestServer(t *testing.T, ing Ingester) (*Server, *storage.IndexStore) {
	t.Helper()
	store := storage.NewIndexStore(filepath.Join(t.TempDir(), "faiss_index"), string(vector.IndexTypeMemory), 8, nil)
	return NewServer(ing, store, &config.ServerConfig{Host: "localhost", Port: 8000}, nil), store
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestHandleIngest_Success(t *testing.T) {
	ing := &stubIngester{result: &ingest.Result{Chunks: 4, IndexPath: "./faiss_index"}}
	srv, _ := newTestServer(t, ing)
	h := srv.Router()

	for _, path := range []string{"/hackrx/run", "/api/v1/ingest"} {
		t.Run(path, func(t *testing.T) {
			w := postJSON(t, h, path, `{"documents":"  https://example.com/a.pdf ","questions":["q1","q2"]}`)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var out models.IngestResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
			assert.Equal(t, SuccessMessage, out.Message)
			assert.Equal(t, 4, out.Chunks)
			assert.Equal(t, "./faiss_index", out.IndexPath)
			assert.NotEmpty(t, out.RequestID)
			assert.Equal(t, ing.requestID, out.RequestID)
			assert.Equal(t, "https://example.com/a.pdf", ing.request.Documents)
			assert.Len(t, ing.request.Questions, 2)
		})
	}
}

func TestHandleIngest_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"documents":`, "invalid request body"},
		{"wrong type", `{"documents": 42}`, "invalid request body"},
		{"missing documents", `{"questions":["q"]}`, models.ErrMissingDocuments.Error()},
		{"blank documents", `{"documents":"   "}`, models.ErrMissingDocuments.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &stubIngester{}
			srv, _ := newTestServer(t, ing)
			w := postJSON(t, srv.Router(), "/hackrx/run", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			out := decodeError(t, w)
			assert.Equal(t, tt.want, out.Error)
			assert.Empty(t, out.Stage)
			assert.Nil(t, ing.request, "pipeline must not run")
		})
	}
}

func TestHandleIngest_StageErrors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantStage  string
		wantPrefix string
	}{
		{"fetch", &ingest.StageError{Stage: ingest.StageFetch, Err: cause}, http.StatusBadGateway, "fetch", "Failed to download document: "},
		{"invalid url", &ingest.StageError{Stage: ingest.StageFetch, Err: fmt.Errorf("%w: bad", fetch.ErrInvalidURL)}, http.StatusBadRequest, "fetch", "Failed to download document: "},
		{"extract", &ingest.StageError{Stage: ingest.StageExtract, Err: cause}, http.StatusUnprocessableEntity, "extract", "Text extraction failed: "},
		{"chunk", &ingest.StageError{Stage: ingest.StageChunk, Err: ingest.ErrNoText}, http.StatusUnprocessableEntity, "chunk", "Chunking failed: "},
		{"embed", &ingest.StageError{Stage: ingest.StageEmbed, Err: cause}, http.StatusInternalServerError, "embed", "Embedding failed: "},
		{"index", &ingest.StageError{Stage: ingest.StageIndex, Err: cause}, http.StatusInternalServerError, "index", "Index persistence failed: "},
		{"timeout", &ingest.StageError{Stage: ingest.StageExtract, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "extract", "Text extraction failed: "},
		{"unstaged", cause, http.StatusInternalServerError, "", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubIngester{err: tt.err})
			w := postJSON(t, srv.Router(), "/hackrx/run", `{"documents":"https://example.com/a.pdf"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			out := decodeError(t, w)
			assert.Equal(t, tt.wantStage, out.Stage)
			assert.True(t, strings.HasPrefix(out.Error, tt.wantPrefix), out.Error)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubIngester{})
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleIndexStatus(t *testing.T) {
	srv, store := newTestServer(t, &stubIngester{})
	h := srv.Router()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/index", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	chunks := []*models.Chunk{
		{ID: "c-000000", DocumentID: "url:x", Position: 0, Content: "grace period", Embedding: []float32{1, 0, 0, 0, 0, 0, 0, 0}},
		{ID: "c-000001", DocumentID: "url:x", Position: 1, Content: "waiting period", Embedding: []float32{0, 1, 0, 0, 0, 0, 0, 0}},
	}
	_, err := store.Replace(context.Background(), chunks, storage.Meta{SourceURL: "https://example.com/x.pdf", DocumentID: "url:x"})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/index", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		ChunkCount     int    `json:"chunk_count"`
		IndexType      string `json:"index_type"`
		SourceURL      string `json:"source_url"`
		Path           string `json:"path"`
		DiskUsageBytes int64  `json:"disk_usage_bytes"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, 2, out.ChunkCount)
	assert.Equal(t, string(vector.IndexTypeMemory), out.IndexType)
	assert.Equal(t, "https://example.com/x.pdf", out.SourceURL)
	assert.Equal(t, store.Dir(), out.Path)
	assert.Greater(t, out.DiskUsageBytes, int64(0))
}

func TestHandleIngest_EndToEnd(t *testing.T) {
	docs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/policy.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strings.Repeat("The grace period for premium payment is thirty days. ", 30)))
	}))
	defer docs.Close()

	embedder := embedding.NewMockEmbedder(16)
	chunker, err := indexer.NewChunker(config.ChunkingConfig{ChunkSize: 500, ChunkOverlap: 50})
	require.NoError(t, err)
	root := t.TempDir()
	store := storage.NewIndexStore(filepath.Join(root, "faiss_index"), string(vector.IndexTypeMemory), 16, nil)
	pipeline := ingest.NewPipeline(
		fetch.New(config.FetchConfig{Timeout: 5 * time.Second, MaxBytes: 1 << 20}),
		tempstore.New(filepath.Join(root, "tmp"), nil),
		extract.NewExtractor(),
		chunker,
		indexer.NewIndexer(embedder, store),
	)
	srv := NewServer(pipeline, store, &config.ServerConfig{RequestTimeout: 30 * time.Second}, nil)
	h := srv.Router()

	w := postJSON(t, h, "/hackrx/run", fmt.Sprintf(`{"documents":%q,"questions":["What is the grace period?"]}`, docs.URL+"/policy.txt"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ok models.IngestResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ok))
	assert.GreaterOrEqual(t, ok.Chunks, 3)
	assert.Equal(t, store.Dir(), ok.IndexPath)

	w = postJSON(t, h, "/hackrx/run", fmt.Sprintf(`{"documents":%q}`, docs.URL+"/missing.pdf"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	out := decodeError(t, w)
	assert.Equal(t, "fetch", out.Stage)
	assert.True(t, strings.HasPrefix(out.Error, "Failed to download document: "), out.Error)

	m, err := store.Manifest()
	require.NoError(t, err)
	assert.Equal(t, ok.Chunks, m.ChunkCount)
}
