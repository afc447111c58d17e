// Package seed writes synthetic evaluation records to the object store and
// checks that the leaderboard served over HTTP ranks them correctly.
package seed

import (
	"time"

	"github.com/okian/evalboard/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL      string        // Base URL of the leaderboard service; empty skips verification
	Prefix       string        // Object key prefix
	Participants int           // Number of distinct participants
	RunsPer      int           // Evaluation runs written per participant
	FailedRatio  float64       // Share of runs written with a non-completed status
	TopN         int           // Leaderboard entries to fetch for verification
	Workers      int           // Concurrent uploads
	Timeout      time.Duration // HTTP request timeout
	Seed         uint64        // Random seed; zero picks one from the clock
	OutputFile   string        // Optional JSON dump of the generated records
	Verbose      bool          // Log every uploaded key
}

// Document is a generated object ready to be written.
type Document struct {
	Key    string
	Record model.EvaluationRecord
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Completed  int
	Uploaded   int
	Failed     int
	Fetched    int
	Total      int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Mismatches []string
}
