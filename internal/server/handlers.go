package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/ncarver/ragserve/internal/retrieval"
)

// IngestResponse is the response body for both ingestion endpoints.
type IngestResponse struct {
	Status      string   `json:"status"`
	DocumentIDs []string `json:"document_ids"`
	Message     string   `json:"message"`
}

// queryRequest is the request body for /api/query.
type queryRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	Elaborate bool   `json:"elaborate"`
}

// batchIngestRequest is the request body for /api/batch-ingest.
type batchIngestRequest struct {
	Documents []retrieval.DocumentInput `json:"documents"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var inputs []retrieval.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.ingest(w, r, inputs)
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	var req batchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.ingest(w, r, req.Documents)
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request, inputs []retrieval.DocumentInput) {
	if len(inputs) == 0 {
		s.respondError(w, http.StatusBadRequest, retrieval.ErrNoDocuments.Error())
		return
	}

	ids, err := s.orchestrator.Ingest(r.Context(), inputs)
	if err != nil {
		log.Error("Ingestion failed", "count", len(inputs), "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, IngestResponse{
		Status:      "success",
		DocumentIDs: ids,
		Message:     "documents ingested",
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.orchestrator.AnswerQuery(r.Context(), req.Query, req.TopK, req.Elaborate)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("Query failed", "query", req.Query, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok := s.orchestrator.Document(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"documents": s.orchestrator.DocumentCount(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "ragserve",
		"endpoints": map[string]string{
			"POST /api/ingest":        "ingest an array of documents",
			"POST /api/batch-ingest":  "ingest {documents: [...]}",
			"POST /api/query":         "answer a question from stored documents",
			"GET /api/documents/{id}": "fetch a stored document",
			"GET /health":             "liveness check",
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
