// Package server exposes stored designs over a small read-only HTTP API.
//
// The server is an inspection surface for the metadata directory: health,
// version, and design lookup. It never writes; generation stays in the
// CLI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/forgeleaf/jewelgen/pkg/match"
	"github.com/forgeleaf/jewelgen/pkg/metadata"
)

// Server serves the design inspection API.
type Server struct {
	host    string
	port    int
	store   *metadata.Store
	version string
	logger  *zap.Logger
	router  chi.Router
}

// New creates a Server over the given metadata store. A nil logger is
// replaced with a no-op logger.
func New(host string, port int, store *metadata.Store, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		host:    host,
		port:    port,
		store:   store,
		version: version,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the host:port the server binds to.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", zap.String("addr", s.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1/designs", func(r chi.Router) {
		r.Get("/", s.handleListDesigns)
		r.Get("/{id}", s.handleGetDesign)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Designs int    `json:"designs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	docs, err := s.store.List("*")
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "metadata store unreadable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: s.version,
		Designs: len(docs),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

type listResponse struct {
	Count   int                  `json:"count"`
	Designs []*metadata.Document `json:"designs"`
}

func (s *Server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := filterFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}

	docs, err := s.store.List(q.Get("match"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PATTERN", err.Error())
		return
	}

	filtered := make([]*metadata.Document, 0, len(docs))
	for _, doc := range docs {
		if filter.Match(&doc.Record) {
			filtered = append(filtered, doc)
		}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(filtered), Designs: filtered})
}

// filterFromQuery builds a record filter from list query parameters.
func filterFromQuery(q url.Values) (*match.CompositeFilter, error) {
	cfg := &match.FilterConfig{
		Material:    q.Get("material"),
		JewelryType: q.Get("type"),
		Batch:       q.Get("batch"),
		NameRegex:   q.Get("name_regex"),
	}
	after, before := q.Get("created_after"), q.Get("created_before")
	if after != "" || before != "" {
		cfg.Created = &match.DateFilterConfig{After: after, Before: before}
	}
	return match.NewFilterFromConfig(cfg)
}

func (s *Server) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no design with id "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
