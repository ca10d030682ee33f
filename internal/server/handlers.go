package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
	"github.com/Veraticus/arcwise/internal/pipeline"
	"github.com/Veraticus/arcwise/internal/storage"
)

const maxRequestBytes = 64 << 10

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	runner Runner
	store  RunStore
	logger *slog.Logger
}

// CreateRunRequest is the body of POST /api/v1/runs.
type CreateRunRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Stage model.Stage `json:"stage,omitempty"`
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func parseLimit(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return min(v, 500)
}

// statusFor maps a pipeline failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, common.ErrCapabilityFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Health ---

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- CreateRun ---

// CreateRun runs the pipeline on the posted text.
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.runner.Run(r.Context(), req.Text)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		if stage, ok := pipeline.FailedStage(err); ok {
			resp.Stage = stage
		}
		h.writeJSON(w, statusFor(err), resp)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// --- ListRuns ---

// ListRuns returns journaled runs, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "run journal is disabled")
		return
	}

	q := r.URL.Query()
	opts := storage.ListOptions{
		Status: storage.RunStatus(q.Get("status")),
		Stage:  model.Stage(q.Get("stage")),
		Limit:  parseLimit(q.Get("limit"), 50),
	}

	runs, err := h.store.ListRuns(r.Context(), opts)
	if err != nil {
		h.logger.Error("Failed to list runs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// --- GetRun ---

// GetRun returns one journaled run.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "run journal is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to get run", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}
