package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/evalboard/internal/domain/model"
)

// DefaultPrefix is where the evaluation pipeline writes its results.
const DefaultPrefix = "evaluation-results/"

const (
	recordSuffix   = ".json"
	pipelineSuffix = "_output.jsonl"
)

// jobTimestamp extracts the unix seconds embedded in pipeline job names,
// e.g. "llm-judge-participant-001-1718000000".
var jobTimestamp = regexp.MustCompile(`llm-judge-[^/]+-(\d{10,})`)

// Codec decodes stored objects into evaluation records. Two layouts are
// understood: a single JSON record per "*.json" object, and the pipeline's
// raw "*_output.jsonl" output which is summarized into one record.
type Codec struct {
	prefix   string
	validate *validator.Validate
}

// NewCodec returns a codec for objects stored under prefix.
func NewCodec(prefix string) *Codec {
	return &Codec{prefix: prefix, validate: validator.New()}
}

// Supports reports whether the codec can decode the key.
func (c *Codec) Supports(key string) bool {
	return strings.HasSuffix(key, recordSuffix) || strings.HasSuffix(key, pipelineSuffix)
}

// Decode turns an object's bytes into a record. Out-of-range scores are
// clamped into [0,1] and counted in the returned anomaly total.
func (c *Codec) Decode(obj Object, data []byte) (model.EvaluationRecord, int, error) {
	var (
		rec model.EvaluationRecord
		err error
	)
	switch {
	case strings.HasSuffix(obj.Key, pipelineSuffix):
		rec, err = c.decodePipeline(obj, data)
	case strings.HasSuffix(obj.Key, recordSuffix):
		rec, err = c.decodeRecord(data)
	default:
		err = fmt.Errorf("unsupported object type %q", obj.Key)
	}
	if err != nil {
		return model.EvaluationRecord{}, 0, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, obj.Key, err)
	}

	if rec.HasNaN() {
		return model.EvaluationRecord{}, 0, fmt.Errorf("%w: %s: score is not a number", ErrMalformedRecord, obj.Key)
	}
	anomalies := rec.Normalize()
	return rec, anomalies, nil
}

func (c *Codec) decodeRecord(data []byte) (model.EvaluationRecord, error) {
	var rec model.EvaluationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	if err := c.validate.Struct(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

type pipelineScore struct {
	MetricName string  `json:"metricName"`
	Result     float64 `json:"result"`
}

type pipelineLine struct {
	InputRecord struct {
		Category string `json:"category"`
	} `json:"inputRecord"`
	AutomatedEvaluationResult struct {
		Scores []pipelineScore `json:"scores"`
	} `json:"automatedEvaluationResult"`
}

func (c *Codec) decodePipeline(obj Object, data []byte) (model.EvaluationRecord, error) {
	participant := c.participantFromKey(obj.Key)
	if participant == "" {
		return model.EvaluationRecord{}, fmt.Errorf("no participant segment under %q", c.prefix)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	lines := 0
	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		var line pipelineLine
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}
		lines++
		for _, s := range line.AutomatedEvaluationResult.Scores {
			if s.MetricName == "" {
				continue
			}
			sums[s.MetricName] += s.Result
			counts[s.MetricName]++
		}
	}
	if lines == 0 {
		return model.EvaluationRecord{}, fmt.Errorf("no decodable lines")
	}

	metrics := make(map[string]float64, len(sums))
	total := 0.0
	for name, sum := range sums {
		mean := sum / float64(counts[name])
		metrics[name] = mean
		total += mean
	}
	if len(metrics) > 0 {
		total /= float64(len(metrics))
	}

	return model.EvaluationRecord{
		ParticipantID:   participant,
		ModelName:       participant,
		TotalScore:      total,
		MetricScores:    metrics,
		Timestamp:       timestampFor(obj),
		EvaluationCount: lines,
		Status:          model.StatusCompleted,
	}, nil
}

// participantFromKey returns the first path segment after the prefix.
func (c *Codec) participantFromKey(key string) string {
	rest, ok := strings.CutPrefix(key, c.prefix)
	if !ok {
		return ""
	}
	segment, _, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	return segment
}

func timestampFor(obj Object) int64 {
	if m := jobTimestamp.FindStringSubmatch(obj.Key); m != nil {
		if ts, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return ts
		}
	}
	if obj.LastModified.IsZero() {
		return 0
	}
	return obj.LastModified.Unix()
}
