// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/pkg/logger"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	GetLeaderboard(ctx context.Context, q service.Query) (service.Leaderboard, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
	log  logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, log: log}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N&view=all|latest requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		handleNotFound(w, r)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		respondError(r.Context(), w, h.log, Wrap(op, err))
		return
	}

	lb, err := h.deps.GetLeaderboard(r.Context(), service.Query{
		Limit: limit,
		View:  r.URL.Query().Get("view"),
	})
	if err != nil {
		respondError(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newLeaderboardResponse(lb))
}

// parseLimit reads the optional limit parameter. A missing value yields 0,
// which the service replaces with its default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	return n, nil
}

// respondError writes the translated error and logs server-side failures.
func respondError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	e := translate(err)
	if e.status >= statusInternalError {
		log.Error(ctx, "query failed",
			logger.Int("status", e.status),
			logger.String("code", e.code),
			logger.Error(err),
		)
	}
	writeError(w, e.status, e.code, e.message)
}
