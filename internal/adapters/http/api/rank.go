// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	ParticipantRank(ctx context.Context, participantID, view string) (model.LeaderboardEntry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
	log  logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies, log logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, log: log}
}

// HandleGetRank handles GET /rank/{participant_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		handleNotFound(w, r)
		return
	}
	// Extract path parameter after /rank/
	id := strings.TrimPrefix(r.URL.Path, "/rank/")
	if id == "" || strings.Contains(id, "/") {
		respondError(r.Context(), w, h.log, Wrap(op, fmt.Errorf("%w: participant id is required", ErrBadRequest)))
		return
	}
	entry, err := h.deps.ParticipantRank(r.Context(), id, r.URL.Query().Get("view"))
	if err != nil {
		respondError(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
