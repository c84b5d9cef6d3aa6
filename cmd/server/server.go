package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"stockmind/internal/analysis"
	"stockmind/internal/provider"
	"stockmind/internal/symbol"
)

type marketService interface {
	Quote(ctx context.Context, cls symbol.Classification) (provider.Quote, error)
	History(ctx context.Context, cls symbol.Classification, days int) (provider.History, string, error)
}

type searchService interface {
	Search(ctx context.Context, query string) ([]provider.Listing, error)
}

type analyzer interface {
	Analyze(ctx context.Context, prompt string) analysis.Strategy
}

type server struct {
	market   marketService
	search   searchService
	analysis analyzer
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time
}

var endpoints = []string{
	"GET /api/stock?action=quote&symbol=SYM",
	"GET /api/stock?action=history&symbol=SYM&days=N",
	"GET /api/stock?action=search&q=TEXT",
	"POST /api/analyze",
	"GET /api/health",
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Compress(5))
	r.Use(limitBody)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stock", s.handleStock)
		r.Post("/analyze", s.handleAnalyze)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, failure("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, failure("method not allowed"))
	})
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}
