package handlers

import (
	"net/http"

	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// HealthHandler handles health and readiness probes.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// HealthResponse is the response body for health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// Liveness handles GET /health. Always returns 200 while the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, HealthResponse{Status: "ok"})
}

// Readiness handles GET /health/ready. Verifies database connectivity.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	WriteJSONOK(w, HealthResponse{Status: "ok"})
}
