// Package aggregate computes summary statistics and the score histogram for a
// ranked leaderboard.
package aggregate

import (
	"math"
	"time"

	"github.com/okian/evalboard/internal/domain/model"
)

// DefaultRecentWindow is the trailing window used for recentEvaluations.
const DefaultRecentWindow = 24 * time.Hour

// bucketEdges are the lower bounds of buckets 1..4. A score lands in the
// bucket whose index is the number of edges it reaches.
var bucketEdges = [model.HistogramBucketCount - 1]float64{0.2, 0.4, 0.6, 0.8}

// Option applies a configuration option to an Aggregator.
type Option func(*Aggregator)

// WithRecentWindow overrides the recency window. Non-positive values are ignored.
func WithRecentWindow(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.window = d
		}
	}
}

// Aggregator turns ranked entries into stats and a histogram.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	window time.Duration
}

// New returns an Aggregator with the given options applied.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{window: DefaultRecentWindow}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window returns the configured recency window.
func (a *Aggregator) Window() time.Duration { return a.window }

// Aggregate computes stats and histogram using the default 24h window.
func Aggregate(entries []model.LeaderboardEntry, now time.Time) (model.LeaderboardStats, model.ScoreHistogram) {
	return New().Aggregate(entries, now)
}

// Aggregate computes stats and histogram for entries as of now.
// Empty input yields zero stats and five empty buckets.
func (a *Aggregator) Aggregate(entries []model.LeaderboardEntry, now time.Time) (model.LeaderboardStats, model.ScoreHistogram) {
	stats := model.LeaderboardStats{TotalParticipants: len(entries)}
	hist := model.NewScoreHistogram()
	if len(entries) == 0 {
		return stats, hist
	}

	sum := 0.0
	top := math.Inf(-1)
	for _, e := range entries {
		sum += e.TotalScore
		if e.TotalScore > top {
			top = e.TotalScore
		}
		if IsRecent(e.Timestamp, now, a.window) {
			stats.RecentEvaluations++
		}
		hist[BucketIndex(e.TotalScore)].Count++
	}
	stats.AverageScore = sum / float64(len(entries))
	stats.TopScore = top
	return stats, hist
}

// BucketIndex returns the histogram bucket for score. Scores below 0 (and
// NaN) fall into the first bucket, scores of 1 or above into the last.
func BucketIndex(score float64) int {
	idx := 0
	for _, edge := range bucketEdges {
		if score >= edge {
			idx++
		}
	}
	return idx
}

// IsRecent reports whether a timestamp in unix seconds lies strictly within
// window of now. Future timestamps count as recent.
func IsRecent(ts int64, now time.Time, window time.Duration) bool {
	return now.Sub(time.Unix(ts, 0)) < window
}
