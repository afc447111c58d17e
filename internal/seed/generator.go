package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
)

// Metric names written into every generated record.
var metricNames = []string{"accuracy", "faithfulness", "relevance", "coherence"}

// Score distribution constants.
const (
	eliteShare      = 0.05
	eliteMin        = 0.85
	strongShare     = 0.25
	strongMin       = 0.6
	averageMin      = 0.2
	scoreSpread     = 0.15
	maxEvaluations  = 500
	runSpacing      = 6 * time.Hour
	modelNameFormat = "model-%s"
)

// Generate creates Participants*RunsPer records with scores drawn from a
// skewed distribution. The result is deterministic for a given Seed and now.
func Generate(ctx context.Context, cfg *Config, now time.Time) ([]Document, error) {
	if cfg.Participants <= 0 || cfg.RunsPer <= 0 {
		return nil, fmt.Errorf("%w: participants and runs must be positive", ErrInvalidConfig)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	docs := make([]Document, 0, cfg.Participants*cfg.RunsPer)
	for p := 0; p < cfg.Participants; p++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		id := participantID(rng)
		base := baseScore(rng)
		for run := 0; run < cfg.RunsPer; run++ {
			ts := now.Add(-time.Duration(run) * runSpacing).Add(-time.Duration(rng.IntN(3600)) * time.Second).Unix()
			rec := newRecord(rng, id, base, ts)
			if rng.Float64() < cfg.FailedRatio {
				rec.Status = pickIncomplete(rng)
			}
			docs = append(docs, Document{Key: ObjectKey(cfg.Prefix, id, ts), Record: rec})
		}
	}

	logger.GetOrNop().Info(ctx, "generated evaluation records",
		logger.Int("participants", cfg.Participants),
		logger.Int("records", len(docs)),
		logger.Int64("seed", int64(seed)))
	return docs, nil
}

// ObjectKey follows the pipeline's layout: <prefix><participant>/llm-judge-<participant>-<unix>.json.
func ObjectKey(prefix, participant string, ts int64) string {
	return fmt.Sprintf("%s%s/llm-judge-%s-%d.json", prefix, participant, participant, ts)
}

// participantID draws a v4 UUID from rng so the same seed yields the same ids.
func participantID(rng *rand.Rand) string {
	var b [16]byte
	for i := range b {
		b[i] = byte(rng.UintN(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(b[:])
	return id.String()
}

func baseScore(rng *rand.Rand) float64 {
	switch r := rng.Float64(); {
	case r < eliteShare:
		return eliteMin + rng.Float64()*(1-eliteMin)
	case r < eliteShare+strongShare:
		return strongMin + rng.Float64()*(eliteMin-strongMin)
	default:
		return averageMin + rng.Float64()*(strongMin-averageMin)
	}
}

func newRecord(rng *rand.Rand, id string, base float64, ts int64) model.EvaluationRecord {
	scores := make(map[string]float64, len(metricNames))
	total := 0.0
	for _, name := range metricNames {
		v := clamp(base + (rng.Float64()*2-1)*scoreSpread)
		scores[name] = v
		total += v
	}
	return model.EvaluationRecord{
		ParticipantID:   id,
		ModelName:       fmt.Sprintf(modelNameFormat, id),
		TotalScore:      total / float64(len(metricNames)),
		MetricScores:    scores,
		Timestamp:       ts,
		EvaluationCount: 1 + rng.IntN(maxEvaluations),
		Status:          model.StatusCompleted,
	}
}

func pickIncomplete(rng *rand.Rand) model.Status {
	if rng.IntN(2) == 0 {
		return model.StatusFailed
	}
	return model.StatusPending
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
