// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the engine over HTTP.
//
//	POST /v1/search   run one query
//	GET  /v1/adapters list configured adapters
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/sourcing-engine/internal/adapter"
	"github.com/pdiddy/sourcing-engine/internal/cache"
	"github.com/pdiddy/sourcing-engine/internal/engine"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

type ctxKey struct{}

// Server routes HTTP requests to the engine.
type Server struct {
	searcher cache.Searcher
	adapters []adapter.Adapter
	metrics  http.Handler
	log      *zap.Logger
	router   chi.Router
}

// New builds the router. metrics may be nil, in which case /metrics is not
// served.
func New(searcher cache.Searcher, adapters []adapter.Adapter, metrics http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{searcher: searcher, adapters: adapters, metrics: metrics, log: log}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/adapters", s.handleAdapters)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), engine.MaxBudget+time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Text     string                 `json:"text"`
	Intent   types.StructuredIntent `json:"intent"`
	BudgetMS int64                  `json:"budget_ms,omitempty"`
	Currency string                 `json:"currency,omitempty"`

	// Adapters restricts the query to the named adapters, in configured order.
	Adapters []string `json:"adapters,omitempty"`
}

// Query converts the request to an engine query.
func (r SearchRequest) Query() types.Query {
	return types.Query{
		Text:     r.Text,
		Intent:   r.Intent,
		Budget:   time.Duration(r.BudgetMS) * time.Millisecond,
		Currency: r.Currency,
	}
}

// SearchResponse is the body of a successful POST /v1/search. NoResults is
// set, with a 200 status, when every source failed or came back empty.
type SearchResponse struct {
	RequestID         string                `json:"request_id"`
	NoResults         bool                  `json:"no_results"`
	Summary           string                `json:"summary"`
	Offers            []types.Offer         `json:"offers"`
	Statuses          []types.AdapterStatus `json:"statuses"`
	ElapsedMS         int64                 `json:"elapsed_ms"`
	DuplicatesRemoved int                   `json:"duplicates_removed"`
	Excluded          int                   `json:"excluded"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := RequestID(r.Context())

	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: id, Error: "malformed request body"})
		return
	}
	if req.BudgetMS < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: id, Error: "budget_ms must not be negative"})
		return
	}

	adapters, unknown := s.selectAdapters(req.Adapters)
	if unknown != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: id, Error: "unknown adapter: " + unknown})
		return
	}

	rs, err := s.searcher.SourceAndRank(r.Context(), req.Query(), adapters)
	switch {
	case errors.Is(err, engine.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: id, Error: err.Error()})
		return
	case err != nil && !errors.Is(err, engine.ErrNoResults):
		s.log.Error("search failed", zap.String("request_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{RequestID: id, Error: "internal error"})
		return
	}

	offers := rs.Offers
	if offers == nil {
		offers = []types.Offer{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		RequestID:         id,
		NoResults:         errors.Is(err, engine.ErrNoResults),
		Summary:           rs.Summary(),
		Offers:            offers,
		Statuses:          rs.Statuses,
		ElapsedMS:         rs.Elapsed.Milliseconds(),
		DuplicatesRemoved: rs.DuplicatesRemoved,
		Excluded:          rs.Excluded,
	})
}

type adapterInfo struct {
	Name     string               `json:"name"`
	Category types.SourceCategory `json:"category"`
}

func (s *Server) handleAdapters(w http.ResponseWriter, _ *http.Request) {
	out := make([]adapterInfo, len(s.adapters))
	for i, a := range s.adapters {
		out[i] = adapterInfo{Name: a.Name(), Category: a.Category()}
	}
	writeJSON(w, http.StatusOK, out)
}

// selectAdapters returns the configured adapters named in names, keeping
// configured order. An empty list selects all of them.
func (s *Server) selectAdapters(names []string) ([]adapter.Adapter, string) {
	if len(names) == 0 {
		return s.adapters, ""
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []adapter.Adapter
	for _, a := range s.adapters {
		if want[a.Name()] {
			out = append(out, a)
			delete(want, a.Name())
		}
	}
	for _, n := range names {
		if want[n] {
			return nil, n
		}
	}
	return out, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestID assigns a request ID, honouring a well-formed incoming one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
