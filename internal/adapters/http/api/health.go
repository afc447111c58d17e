// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// HealthDependencies reports service readiness.
type HealthDependencies interface {
	Ready() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz requests. It does not touch storage.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	if h.deps != nil && !h.deps.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
