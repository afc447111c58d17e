// Package service provides the query service that implements the
// dependencies required by the HTTP API.
//
// Every query re-reads the record store, ranks and aggregates from scratch.
// Nothing derived is kept between calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/evalboard/internal/adapters/storage"
	"github.com/okian/evalboard/internal/domain/aggregate"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/ranking"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
	"github.com/okian/evalboard/pkg/tracing"
)

// Default query configuration constants.
const (
	defaultLimit    = 50
	defaultMaxLimit = 1000
)

// RecordSource lists and loads evaluation records.
type RecordSource interface {
	Snapshot(ctx context.Context) (storage.Snapshot, error)
	Load(ctx context.Context, snap storage.Snapshot) ([]model.EvaluationRecord, storage.LoadReport, error)
}

// SnapshotCache keeps loaded records per storage generation.
type SnapshotCache interface {
	Get(ctx context.Context, generation string) ([]model.EvaluationRecord, bool)
	Set(ctx context.Context, generation string, records []model.EvaluationRecord) error
}

// Query selects what a leaderboard request returns. Zero values take the
// service defaults.
type Query struct {
	Limit int
	View  string
}

// Leaderboard is one freshly computed snapshot. Stats and Histogram cover
// every ranked entry; Entries may be truncated by the query limit.
type Leaderboard struct {
	Entries     []model.LeaderboardEntry
	Stats       model.LeaderboardStats
	Histogram   model.ScoreHistogram
	GeneratedAt time.Time
	Total       int
	View        ranking.View
}

// Summary is a leaderboard without its entries.
type Summary struct {
	Stats       model.LeaderboardStats
	Histogram   model.ScoreHistogram
	GeneratedAt time.Time
}

// Service answers leaderboard queries.
type Service struct {
	mu sync.RWMutex

	source     RecordSource
	cache      SnapshotCache
	aggregator *aggregate.Aggregator

	defaultLimit int
	maxLimit     int
	view         ranking.View
	now          func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the record source.
func WithSource(src RecordSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithCache enables the snapshot cache.
func WithCache(c SnapshotCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultLimit sets the limit used when a query carries none.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the accepted query limit.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithView sets the default view.
func WithView(v ranking.View) Option {
	return func(s *Service) {
		if v != "" {
			s.view = v
		}
	}
}

// WithRecentWindow sets the window for recentEvaluations.
func WithRecentWindow(d time.Duration) Option {
	return func(s *Service) {
		s.aggregator = aggregate.New(aggregate.WithRecentWindow(d))
	}
}

// WithClock overrides the time source used for generatedAt and recency.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		aggregator:   aggregate.New(),
		defaultLimit: defaultLimit,
		maxLimit:     defaultMaxLimit,
		view:         ranking.ViewAll,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	return s
}

// Start checks dependencies and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.GetOrNop()
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("defaultLimit", s.defaultLimit),
		logger.Int("maxLimit", s.maxLimit),
		logger.String("view", s.view.String()),
		logger.Duration("recentWindow", s.aggregator.Window()),
		logger.Bool("cache", s.cache != nil),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// Ready reports whether the service accepts queries.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// MaxLimit returns the largest accepted limit.
func (s *Service) MaxLimit() int { return s.maxLimit }

// GetLeaderboard reads the store, ranks and aggregates, and returns the
// top entries.
func (s *Service) GetLeaderboard(ctx context.Context, q Query) (lb Leaderboard, err error) {
	if !s.Ready() {
		return Leaderboard{}, ErrServiceNotStarted
	}
	limit, err := s.resolveLimit(q.Limit)
	if err != nil {
		return Leaderboard{}, err
	}
	view, err := s.resolveView(q.View)
	if err != nil {
		return Leaderboard{}, err
	}

	ctx, end := tracing.StartSpan(ctx, "leaderboard.query",
		attribute.Int("leaderboard.limit", limit),
		attribute.String("leaderboard.view", view.String()),
	)
	defer func() { end(err) }()
	start := time.Now()
	defer func() {
		metrics.RecordQuery(view.String(), outcome(err))
		metrics.RecordQueryLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	entries, summary, err := s.compute(ctx, view)
	if err != nil {
		return Leaderboard{}, err
	}

	return Leaderboard{
		Entries:     ranking.Top(entries, limit),
		Stats:       summary.Stats,
		Histogram:   summary.Histogram,
		GeneratedAt: summary.GeneratedAt,
		Total:       len(entries),
		View:        view,
	}, nil
}

// Stats returns stats and histogram without entries.
func (s *Service) Stats(ctx context.Context, viewName string) (Summary, error) {
	if !s.Ready() {
		return Summary{}, ErrServiceNotStarted
	}
	view, err := s.resolveView(viewName)
	if err != nil {
		return Summary{}, err
	}
	_, summary, err := s.compute(ctx, view)
	metrics.RecordQuery(view.String(), outcome(err))
	return summary, err
}

// ParticipantRank returns the best-ranked entry for participantID.
func (s *Service) ParticipantRank(ctx context.Context, participantID, viewName string) (model.LeaderboardEntry, error) {
	if !s.Ready() {
		return model.LeaderboardEntry{}, ErrServiceNotStarted
	}
	view, err := s.resolveView(viewName)
	if err != nil {
		return model.LeaderboardEntry{}, err
	}
	entries, _, err := s.compute(ctx, view)
	metrics.RecordQuery(view.String(), outcome(err))
	if err != nil {
		return model.LeaderboardEntry{}, err
	}
	e, ok := ranking.Find(entries, participantID)
	if !ok {
		return model.LeaderboardEntry{}, fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	return e, nil
}

func (s *Service) compute(ctx context.Context, view ranking.View) ([]model.LeaderboardEntry, Summary, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, Summary{}, err
	}

	_, endRank := tracing.StartSpan(ctx, "ranking.rank", attribute.Int("records", len(records)))
	entries := ranking.Rank(view.Apply(records))
	endRank(nil)

	now := s.now()
	_, endAgg := tracing.StartSpan(ctx, "aggregate.compute", attribute.Int("entries", len(entries)))
	stats, hist := s.aggregator.Aggregate(entries, now)
	endAgg(nil)

	// Snapshot gauges track the default view only.
	if view == s.view {
		metrics.UpdateSnapshotStats(stats.TotalParticipants, stats.RecentEvaluations, stats.AverageScore, stats.TopScore)
		for _, b := range hist {
			metrics.UpdateScoreDistribution(b.Range, b.Count)
		}
	}

	return entries, Summary{Stats: stats, Histogram: hist, GeneratedAt: now}, nil
}

func (s *Service) loadRecords(ctx context.Context) ([]model.EvaluationRecord, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	var generation string
	if s.cache != nil {
		generation = snap.Generation()
		if records, ok := s.cache.Get(ctx, generation); ok {
			return records, nil
		}
	}

	records, report, err := s.source.Load(ctx, snap)
	if err != nil {
		s.logger.Error(ctx, "failed to load evaluation records",
			logger.Int("objects", report.Listed),
			logger.Int("failures", len(report.Failures)),
			logger.Error(err),
		)
		return nil, fmt.Errorf("load records: %w", err)
	}
	if len(report.Failures) > 0 {
		s.logger.Warn(ctx, "some evaluation records were skipped",
			logger.Int("objects", report.Listed),
			logger.Int("decoded", report.Decoded),
			logger.Int("malformed", report.Malformed()),
			logger.Int("failures", len(report.Failures)),
		)
	}

	if s.cache != nil {
		if transientFailures(report) > 0 {
			s.logger.Debug(ctx, "snapshot not cached after fetch failures", logger.String("generation", generation))
			return records, nil
		}
		if err := s.cache.Set(ctx, generation, records); err != nil {
			s.logger.Warn(ctx, "failed to cache snapshot", logger.Error(err))
		}
	}
	return records, nil
}

// transientFailures counts objects that could not be read. Decode failures
// repeat for the same generation and are not counted.
func transientFailures(report storage.LoadReport) int {
	n := 0
	for _, f := range report.Failures {
		if errors.Is(f.Err, storage.ErrFetchFailed) {
			n++
		}
	}
	return n
}

func (s *Service) resolveLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return s.defaultLimit, nil
	case limit < 0 || limit > s.maxLimit:
		return 0, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidLimit, limit, s.maxLimit)
	default:
		return limit, nil
	}
}

func (s *Service) resolveView(name string) (ranking.View, error) {
	if name == "" {
		return s.view, nil
	}
	v, err := ranking.ParseView(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidView, err)
	}
	return v, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
