// Package model contains the evaluation and leaderboard types passed between layers.
package model

import (
	"math"
	"strings"
)

// Status is the completion state tag written by the evaluation pipeline.
type Status string

// Known status tags. Comparison is case-insensitive because the pipeline
// writes upper-case tags.
const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending"
)

// IsCompleted reports whether the record is eligible for ranking.
func (s Status) IsCompleted() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusCompleted))
}

// Normalized returns the lower-case form of the tag.
func (s Status) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(s)))
}

// EvaluationRecord is one participant's result for one evaluation run.
type EvaluationRecord struct {
	ParticipantID   string             `json:"participantId" validate:"required"`
	ModelName       string             `json:"modelName"`
	TotalScore      float64            `json:"totalScore"`
	MetricScores    map[string]float64 `json:"metricScores"`
	Timestamp       int64              `json:"timestamp"`
	EvaluationCount int                `json:"evaluationCount" validate:"min=0"`
	Status          Status             `json:"status" validate:"required"`
}

// Normalize clamps TotalScore and every metric score into [0,1] and returns
// how many values had to be clamped. NaN values are left untouched; callers
// reject them separately.
func (r *EvaluationRecord) Normalize() int {
	anomalies := 0
	if v, clamped := clampUnit(r.TotalScore); clamped {
		r.TotalScore = v
		anomalies++
	}
	for name, score := range r.MetricScores {
		if v, clamped := clampUnit(score); clamped {
			r.MetricScores[name] = v
			anomalies++
		}
	}
	return anomalies
}

// HasNaN reports whether any score is not a number.
func (r EvaluationRecord) HasNaN() bool {
	if math.IsNaN(r.TotalScore) {
		return true
	}
	for _, v := range r.MetricScores {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func clampUnit(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return v, false
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}

// LeaderboardEntry is a ranked record. Entries are produced fresh for every
// query and never mutated afterwards.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	EvaluationRecord
}
