// Package server provides the HTTP API for ingestd.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/internal/ingest"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"go.uber.org/zap"
)

// Ingester runs the ingestion pipeline for one request.
type Ingester interface {
	Run(ctx context.Context, requestID string, req *models.IngestRequest) (*ingest.Result, error)
}

// IndexStatus reports on the persisted snapshot.
type IndexStatus interface {
	Dir() string
	Manifest() (*storage.Manifest, error)
	DiskUsage() (int64, error)
}

// Server is the HTTP server for the ingestd API.
type Server struct {
	ingester Ingester
	index    IndexStatus
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(ingester Ingester, index IndexStatus, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ingester: ingester,
		index:    index,
		config:   cfg,
		logger:   logger,
	}
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Post("/hackrx/run", s.handleIngest)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/index", s.handleIndexStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Start starts the HTTP server and blocks until it stops. It returns
// http.ErrServerClosed after Stop.
func (s *Server) Start() error {
	return s.Serve(nil)
}

// Serve serves on ln, or listens on Addr when ln is nil. Calling Stop first
// makes Serve return http.ErrServerClosed at once.
func (s *Server) Serve(ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.server.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
		}
	}
	s.logger.Info("Starting server", zap.String("addr", ln.Addr().String()))
	return s.server.Serve(ln)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger logs one line per request with the chi request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}
