package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/evalboard/internal/adapters/storage"
	"github.com/okian/evalboard/internal/config"
	"github.com/okian/evalboard/internal/seed"
	"github.com/okian/evalboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultParticipants = 100
	defaultRuns         = 3
	defaultFailedRatio  = 0.1
	defaultTopN         = 50
	defaultWorkers      = 8
	defaultTimeout      = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service; empty skips verification")
		participants = flag.Int("participants", defaultParticipants, "Number of distinct participants")
		runs         = flag.Int("runs", defaultRuns, "Evaluation runs per participant")
		failed       = flag.Float64("failed", defaultFailedRatio, "Share of runs written as failed or pending")
		topN         = flag.Int("top", defaultTopN, "Number of leaderboard entries to verify")
		workers      = flag.Int("workers", defaultWorkers, "Concurrent uploads")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seedValue    = flag.Uint64("seed", 0, "Random seed, 0 for time-based")
		outputFile   = flag.String("output", "", "Write the generated records to this JSON file")
		verbose      = flag.Bool("verbose", false, "Log every uploaded key")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.Storage.Backend != config.BackendS3 {
		os.Stderr.WriteString("seed-records writes to s3; set EVALBOARD_STORAGE__BACKEND=s3\n")
		os.Exit(1)
	}

	writer, err := storage.NewS3Backend(ctx, storage.S3Config{
		Bucket:          cfg.Storage.Bucket,
		Prefix:          cfg.Storage.Prefix,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PathStyle:       cfg.Storage.PathStyle,
	})
	if err != nil {
		os.Stderr.WriteString("Failed to open bucket: " + err.Error() + "\n")
		os.Exit(1)
	}

	runCfg := &seed.Config{
		BaseURL:      *baseURL,
		Prefix:       cfg.Storage.Prefix,
		Participants: *participants,
		RunsPer:      *runs,
		FailedRatio:  *failed,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		Seed:         *seedValue,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}

	if _, err := seed.Run(ctx, runCfg, writer); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
