// Package rest serves the search pipeline and the library over a JSON HTTP API.
//
// Routes:
//
//	POST   /api/search                 run a search
//	GET    /api/search/history         list past searches
//	GET    /api/search/history/{id}    past search with results
//	DELETE /api/search/history/{id}    delete a past search
//	POST   /api/books/scan             index new files
//	GET    /api/books                  list books (?format=)
//	GET    /api/books/formats          formats present
//	GET    /api/books/{id}             book metadata
//	GET    /api/books/{id}/file        the ebook file itself
//	GET    /metrics                    Prometheus metrics
//	GET    /healthz                    liveness
//	*      /mcp                        MCP streamable HTTP transport, when configured
//
// Search and MCP endpoints require the X-User-ID header set by an upstream
// authenticating proxy. MCP tools run as that user. Running a search may be rate limited per user.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/shelf/internal/core/ports/driving"
	"github.com/custodia-labs/shelf/internal/logger"
)

// UserHeader carries the authenticated caller's identity.
const UserHeader = "X-User-ID"

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Ports aggregates everything the HTTP server serves.
type Ports struct {
	Search  driving.SearchService
	Library driving.LibraryService

	// Metrics observes requests. Optional.
	Metrics RequestObserver

	// MetricsHandler serves /metrics. Optional.
	MetricsHandler http.Handler

	// MCP is mounted at /mcp behind the user check. It must resolve the
	// caller from UserHeader on each request. Optional.
	MCP http.Handler

	// SearchRateLimit throttles POST /api/search per user. Optional.
	SearchRateLimit *RateLimitConfig
}

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("rest: search and library services are required")

// Server is the HTTP API server.
type Server struct {
	ports  Ports
	router chi.Router
}

// NewServer builds the router for ports.
func NewServer(ports Ports) (*Server, error) {
	if ports.Search == nil || ports.Library == nil {
		return nil, ErrMissingService
	}

	s := &Server{ports: ports}

	router := chi.NewRouter()
	router.Use(recoverer, requestLogger)
	if ports.Metrics != nil {
		router.Use(metricsMiddleware(ports.Metrics))
	}

	router.Get("/healthz", s.handleHealth)
	if ports.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", ports.MetricsHandler)
	}
	if ports.MCP != nil {
		router.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Handle("/mcp", ports.MCP)
			r.Handle("/mcp/*", ports.MCP)
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Use(requireUser)
			if ports.SearchRateLimit != nil {
				r.With(rateLimit(newUserLimiter(*ports.SearchRateLimit))).Post("/", s.handleSearch)
			} else {
				r.Post("/", s.handleSearch)
			}
			r.Get("/history", s.handleHistory)
			r.Get("/history/{id}", s.handleGetSearch)
			r.Delete("/history/{id}", s.handleDeleteSearch)
		})
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/scan", s.handleScan)
			r.Get("/formats", s.handleFormats)
			r.Get("/{id}", s.handleGetBook)
			r.Get("/{id}/file", s.handleBookFile)
		})
	})

	s.router = router
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", addr)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
