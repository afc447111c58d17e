// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	StatsDependencies
	RankDependencies
	HealthDependencies
}

// Server wires HTTP routes for the query API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	log                logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{log: logger.GetOrNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps, s.log)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.log)
	s.rankHandler = NewRankHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(PublicHeaders(s.leaderboardHandler.HandleGetLeaderboard), "leaderboard"))
	mux.HandleFunc("/stats", MetricsMiddleware(PublicHeaders(s.statsHandler.HandleStats), "stats"))
	mux.HandleFunc("/rank/", MetricsMiddleware(PublicHeaders(s.rankHandler.HandleGetRank), "rank"))
	mux.HandleFunc("/", MetricsMiddleware(PublicHeaders(handleNotFound), "not_found"))
}

// LeaderboardResponse is the body of GET /leaderboard.
type LeaderboardResponse struct {
	Rankings  []model.LeaderboardEntry `json:"rankings"`
	Timestamp *int64                   `json:"timestamp"`
	Count     int                      `json:"count"`
	Total     int                      `json:"total"`
	View      string                   `json:"view"`
	Stats     model.LeaderboardStats   `json:"stats"`
	Histogram model.ScoreHistogram     `json:"histogram"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Stats     model.LeaderboardStats `json:"stats"`
	Histogram model.ScoreHistogram   `json:"histogram"`
	Timestamp *int64                 `json:"timestamp"`
}

func newLeaderboardResponse(lb service.Leaderboard) LeaderboardResponse {
	rankings := lb.Entries
	if rankings == nil {
		rankings = []model.LeaderboardEntry{}
	}
	return LeaderboardResponse{
		Rankings:  rankings,
		Timestamp: unixOrNil(lb.GeneratedAt),
		Count:     len(rankings),
		Total:     lb.Total,
		View:      lb.View.String(),
		Stats:     lb.Stats,
		Histogram: lb.Histogram,
	}
}

func unixOrNil(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ts := t.Unix()
	return &ts
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "endpoint not found")
}
