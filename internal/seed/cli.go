package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Evalboard Seed Tool
===================

Writes synthetic evaluation records to the configured object store and
checks the leaderboard the service serves for them.

Storage settings come from the same EVALBOARD_* environment and config
file as the service; the storage backend must be s3.

Usage:
  go run ./cmd/seed-records [options]

Options:
  -url string
        Base URL of the service; empty skips verification (default "http://localhost:9080")
  -participants int
        Number of distinct participants (default 100)
  -runs int
        Evaluation runs per participant (default 3)
  -failed float
        Share of runs written as failed or pending (default 0.1)
  -top int
        Number of leaderboard entries to verify (default 50)
  -workers int
        Concurrent uploads (default 8)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Random seed, 0 for time-based (default 0)
  -output string
        Write the generated records to this JSON file
  -verbose
        Log every uploaded key
  -help
        Show this help message

Examples:
  # Seed a local MinIO bucket and verify
  EVALBOARD_STORAGE__BACKEND=s3 EVALBOARD_STORAGE__BUCKET=evals \
  EVALBOARD_STORAGE__ENDPOINT=http://localhost:9000 EVALBOARD_STORAGE__PATH_STYLE=true \
  go run ./cmd/seed-records -participants 500

  # Reproducible data without verification
  go run ./cmd/seed-records -url "" -seed 42
`)
}
