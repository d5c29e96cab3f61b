package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/ingestd/internal/fetch"
	"github.com/hyperjump/ingestd/internal/ingest"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/storage"
	"go.uber.org/zap"
)

// SuccessMessage is returned when a document has been indexed.
const SuccessMessage = "Document embedded and FAISS index saved successfully."

const maxRequestBody = 1 << 20

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	var req models.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := s.ingester.Run(r.Context(), requestID, &req)
	if err != nil {
		status, stage := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("ingest failed",
				zap.String("request_id", requestID),
				zap.String("stage", stage),
				zap.Int("status", status),
				zap.Error(err))
		}
		s.respondError(w, status, err.Error(), stage)
		return
	}
	s.respondJSON(w, http.StatusOK, models.IngestResponse{
		Message:   SuccessMessage,
		Chunks:    res.Chunks,
		IndexPath: res.IndexPath,
		RequestID: requestID,
	})
}

// statusFor maps a pipeline error to an HTTP status and its stage name.
func statusFor(err error) (int, string) {
	se := ingest.AsStageError(err)
	if se == nil {
		if ingest.IsTimeout(err) {
			return http.StatusGatewayTimeout, ""
		}
		return http.StatusInternalServerError, ""
	}
	stage := string(se.Stage)
	if ingest.IsTimeout(err) {
		return http.StatusGatewayTimeout, stage
	}
	switch se.Stage {
	case ingest.StageFetch:
		if errors.Is(err, fetch.ErrInvalidURL) {
			return http.StatusBadRequest, stage
		}
		return http.StatusBadGateway, stage
	case ingest.StageExtract, ingest.StageChunk:
		return http.StatusUnprocessableEntity, stage
	default:
		return http.StatusInternalServerError, stage
	}
}

type indexStatusResponse struct {
	*storage.Manifest
	Path           string `json:"path"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.index.Manifest()
	if errors.Is(err, storage.ErrNoSnapshot) {
		s.respondError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	if err != nil {
		s.logger.Error("status: read manifest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	resp := indexStatusResponse{Manifest: manifest, Path: s.index.Dir()}
	if usage, err := s.index.DiskUsage(); err == nil {
		resp.DiskUsageBytes = usage
	} else {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, stage string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message, Stage: stage})
}
