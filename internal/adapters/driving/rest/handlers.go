package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/logger"
)

// searchRequest is the body of POST /api/search.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// searchResponse describes one search and its ranked results.
type searchResponse struct {
	SearchID  string                `json:"search_id"`
	Query     string                `json:"query"`
	Timestamp time.Time             `json:"timestamp"`
	Count     int                   `json:"result_count"`
	Results   []domain.SearchResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MaxResults < 0 {
		writeError(w, http.StatusBadRequest, "max_results must not be negative")
		return
	}

	record, results, err := s.ports.Search.Search(r.Context(), domain.SearchRequest{
		Query:      req.Query,
		UserID:     userFrom(r.Context()),
		MaxResults: req.MaxResults,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(record, results))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.ports.Search.History(r.Context(), userFrom(r.Context()), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.QueryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	record, results, err := s.ports.Search.Get(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(record, results))
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Search.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	report, err := s.ports.Library.Scan(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	added := report.Added
	if added == nil {
		added = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"skipped": report.Skipped,
		"ignored": report.Ignored,
	})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	var format domain.Format
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, ok := domain.ParseFormat(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown format "+strconv.Quote(raw))
			return
		}
		format = f
	}

	docs, err := s.ports.Library.List(r.Context(), format)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := s.ports.Library.Formats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if formats == nil {
		formats = []domain.Format{}
	}
	writeJSON(w, http.StatusOK, formats)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ports.Library.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleBookFile(w http.ResponseWriter, r *http.Request) {
	doc, mime, err := s.ports.Library.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", mime)
	http.ServeFile(w, r, doc.Path)
}

func newSearchResponse(record *domain.QueryRecord, results []domain.SearchResult) searchResponse {
	if results == nil {
		results = []domain.SearchResult{}
	}
	return searchResponse{
		SearchID:  record.ID,
		Query:     record.Query,
		Timestamp: record.CreatedAt,
		Count:     len(results),
		Results:   results,
	}
}

// writeDomainError maps service errors to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
