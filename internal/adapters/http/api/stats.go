// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/pkg/logger"
)

// StatsDependencies defines the interface for summary statistics.
type StatsDependencies interface {
	Stats(ctx context.Context, view string) (service.Summary, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	deps StatsDependencies
	log  logger.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps StatsDependencies, log logger.Logger) *StatsHandler {
	return &StatsHandler{deps: deps, log: log}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		handleNotFound(w, r)
		return
	}
	summary, err := h.deps.Stats(r.Context(), r.URL.Query().Get("view"))
	if err != nil {
		respondError(r.Context(), w, h.log, Wrap("api.get_stats", err))
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Stats:     summary.Stats,
		Histogram: summary.Histogram,
		Timestamp: unixOrNil(summary.GeneratedAt),
	})
}
