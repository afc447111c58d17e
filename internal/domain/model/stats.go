package model

// LeaderboardStats summarizes a ranked snapshot.
type LeaderboardStats struct {
	TotalParticipants int     `json:"totalParticipants"`
	AverageScore      float64 `json:"averageScore"`
	TopScore          float64 `json:"topScore"`
	RecentEvaluations int     `json:"recentEvaluations"`
}

// HistogramBucketCount is the fixed number of score buckets.
const HistogramBucketCount = 5

// HistogramBucket counts entries whose score falls in [Min, Max), or
// [Min, Max] for the last bucket.
type HistogramBucket struct {
	Range string  `json:"range"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// ScoreHistogram is the five-bucket score distribution.
type ScoreHistogram []HistogramBucket

// NewScoreHistogram returns the five buckets with zero counts.
func NewScoreHistogram() ScoreHistogram {
	return ScoreHistogram{
		{Range: "0-20%", Min: 0, Max: 0.2},
		{Range: "20-40%", Min: 0.2, Max: 0.4},
		{Range: "40-60%", Min: 0.4, Max: 0.6},
		{Range: "60-80%", Min: 0.6, Max: 0.8},
		{Range: "80-100%", Min: 0.8, Max: 1.0},
	}
}

// Total returns the sum of all bucket counts.
func (h ScoreHistogram) Total() int {
	n := 0
	for _, b := range h {
		n += b.Count
	}
	return n
}
