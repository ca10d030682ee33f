// Package server exposes the pipeline and the run journal over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/arcwise/internal/pipeline"
	"github.com/Veraticus/arcwise/internal/storage"
)

// Runner processes one request through the pipeline.
type Runner interface {
	Run(ctx context.Context, text string) (*pipeline.Result, error)
}

// RunStore reads journaled runs.
type RunStore interface {
	GetRun(ctx context.Context, id string) (*storage.Run, error)
	ListRuns(ctx context.Context, opts storage.ListOptions) ([]storage.Run, error)
}

// NewRouter creates the chi router with all API routes mounted. store may be
// nil when the journal is disabled.
func NewRouter(runner Runner, store RunStore, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handlers{
		runner: runner,
		store:  store,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", h.CreateRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
