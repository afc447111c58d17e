package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/evalboard/internal/adapters/storage"
	"github.com/okian/evalboard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates records, writes them through w and, when BaseURL is set,
// verifies the served leaderboard.
func Run(ctx context.Context, cfg *Config, w storage.Writer) (*Stats, error) {
	log := logger.GetOrNop()
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("participants", cfg.Participants),
		logger.Int("runsPer", cfg.RunsPer),
		logger.Int("workers", cfg.Workers),
		logger.Int("topN", cfg.TopN))

	var client *Client
	if cfg.BaseURL != "" {
		client = NewClient(cfg.BaseURL, cfg.Timeout)
		if err := client.CheckHealth(ctx); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}
	}

	docs, err := Generate(ctx, cfg, stats.StartTime)
	if err != nil {
		return stats, fmt.Errorf("record generation failed: %w", err)
	}
	stats.Generated = len(docs)
	for _, d := range docs {
		if d.Record.Status.IsCompleted() {
			stats.Completed++
		}
	}

	stats.Uploaded, stats.Failed, err = Upload(ctx, w, docs, cfg.Workers, cfg.Verbose)
	if err != nil {
		return stats, fmt.Errorf("record upload failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveDocuments(cfg.OutputFile, docs); err != nil {
			log.Warn(ctx, "failed to save records to file", logger.Error(err))
		}
	}

	if client != nil {
		lb, err := client.Leaderboard(ctx, cfg.TopN)
		if err != nil {
			return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
		}
		stats.Fetched = len(lb.Rankings)
		stats.Total = lb.Total
		if err := Verify(lb); err != nil {
			return stats, err
		}
		stats.Mismatches = Expect(lb, docs)
		for _, m := range stats.Mismatches {
			log.Warn(ctx, "leaderboard differs from generated ranking", logger.String("detail", m))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// saveDocuments writes the generated records as a JSON array.
func saveDocuments(filename string, docs []Document) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.GetOrNop().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("completed", stats.Completed),
		logger.Int("uploaded", stats.Uploaded),
		logger.Int("failed", stats.Failed),
		logger.Int("fetched", stats.Fetched),
		logger.Int("total", stats.Total),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Duration("duration", stats.Duration))
}
