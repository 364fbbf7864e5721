package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/videotube/backend/internal/apperr"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Database is optional; the in-memory store has nothing to ping.
	Database Pinger
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Handle implements GET /healthz and GET /api/v1/healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Database == nil {
		respondJSON(r.Context(), w, http.StatusOK, healthStatus{Status: "ok"}, "service is healthy")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := h.Database.Ping(ctx); err != nil {
		respondError(w, r, apperr.Wrap(apperr.StorageError, "database is unreachable", err))
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, healthStatus{Status: "ok", Database: "ok"}, "service is healthy")
}
