package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
	"github.com/okian/evalboard/pkg/tracing"
)

// Default store configuration constants.
const (
	defaultFetchTimeout     = 5 * time.Second
	defaultFetchConcurrency = 16
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPrefix sets the key prefix used to derive participant ids from
// pipeline output keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.codec = NewCodec(prefix)
	}
}

// WithFetchTimeout bounds every single object fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithFetchConcurrency caps the number of in-flight object fetches.
func WithFetchConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store reads evaluation records from a Backend. It keeps no state between
// calls; each Load reflects the backend at call time.
type Store struct {
	backend      Backend
	codec        *Codec
	fetchTimeout time.Duration
	concurrency  int
	log          logger.Logger
}

// NewStore wraps backend with the given options applied.
func NewStore(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	s := &Store{
		backend:      backend,
		codec:        NewCodec(DefaultPrefix),
		fetchTimeout: defaultFetchTimeout,
		concurrency:  defaultFetchConcurrency,
		log:          logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Failure records why one object was left out of a load.
type Failure struct {
	Key string
	Err error
}

// LoadReport summarizes a single Load.
type LoadReport struct {
	Listed    int
	Decoded   int
	Completed int
	Skipped   int
	Anomalies int
	Failures  []Failure
}

// Malformed counts failures caused by undecodable objects.
func (r LoadReport) Malformed() int {
	n := 0
	for _, f := range r.Failures {
		if errors.Is(f.Err, ErrMalformedRecord) {
			n++
		}
	}
	return n
}

// Snapshot lists the supported objects currently in the backend, ordered by key.
func (s *Store) Snapshot(ctx context.Context) (snap Snapshot, err error) {
	ctx, end := tracing.StartSpan(ctx, "storage.list")
	defer func() { end(err) }()

	start := time.Now()
	objects, err := s.backend.List(ctx)
	metrics.RecordListLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	if err != nil {
		metrics.RecordStorageError("list")
		s.log.Error(ctx, "failed to list evaluation objects", logger.Error(err))
		return Snapshot{}, fmt.Errorf("%w: list: %w", ErrStorageUnavailable, err)
	}

	supported := make([]Object, 0, len(objects))
	for _, o := range objects {
		if s.codec.Supports(o.Key) {
			supported = append(supported, o)
		}
	}
	slices.SortFunc(supported, func(a, b Object) int { return cmp.Compare(a.Key, b.Key) })
	metrics.RecordObjectsListed(len(supported))

	return Snapshot{Objects: supported, Listed: len(objects)}, nil
}

type fetchResult struct {
	record    model.EvaluationRecord
	anomalies int
	err       error
}

// Load fetches and decodes every object in snap concurrently. Records that
// fail to fetch or decode are reported and skipped; only completed records
// are returned, in snapshot order. The call fails only when the caller's
// context ends or no object at all could be decoded.
func (s *Store) Load(ctx context.Context, snap Snapshot) ([]model.EvaluationRecord, LoadReport, error) {
	report := LoadReport{Listed: len(snap.Objects)}
	results := make([]fetchResult, len(snap.Objects))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, obj := range snap.Objects {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.fetchOne(ctx, obj)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	records := make([]model.EvaluationRecord, 0, len(results))
	fetchFailures := 0
	for i, res := range results {
		if res.err != nil {
			report.Failures = append(report.Failures, Failure{Key: snap.Objects[i].Key, Err: res.err})
			if errors.Is(res.err, ErrFetchFailed) {
				fetchFailures++
			}
			continue
		}
		report.Decoded++
		report.Anomalies += res.anomalies
		if !res.record.Status.IsCompleted() {
			report.Skipped++
			metrics.RecordRecordSkipped(res.record.Status.Normalized())
			continue
		}
		records = append(records, res.record)
	}
	report.Completed = len(records)

	if report.Listed > 0 && report.Decoded == 0 {
		cause := report.Failures[0].Err
		if fetchFailures == len(report.Failures) {
			metrics.RecordStorageError("fetch")
			return nil, report, fmt.Errorf("%w: every fetch failed: %w", ErrStorageUnavailable, cause)
		}
		return nil, report, fmt.Errorf("%w: %w: %w", ErrMalformedRecord, ErrNoRecords, cause)
	}
	return records, report, nil
}

func (s *Store) fetchOne(ctx context.Context, obj Object) (res fetchResult) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	ctx, end := tracing.StartSpan(ctx, "storage.fetch", attribute.String("storage.key", obj.Key))
	defer func() { end(res.err) }()

	start := time.Now()
	data, err := s.backend.Fetch(ctx, obj.Key)
	metrics.RecordFetchLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	if err != nil {
		metrics.RecordFetchFailure()
		s.log.Warn(ctx, "failed to fetch evaluation object", logger.String("key", obj.Key), logger.Error(err))
		return fetchResult{err: fmt.Errorf("%w: %s: %w", ErrFetchFailed, obj.Key, err)}
	}

	rec, anomalies, err := s.codec.Decode(obj, data)
	if err != nil {
		metrics.RecordMalformedRecord()
		s.log.Warn(ctx, "skipping malformed evaluation object", logger.String("key", obj.Key), logger.Error(err))
		return fetchResult{err: err}
	}
	metrics.RecordRecordDecoded()
	if anomalies > 0 {
		metrics.RecordScoreAnomalies(anomalies)
		s.log.Debug(ctx, "clamped out-of-range scores",
			logger.String("key", obj.Key), logger.Int("anomalies", anomalies))
	}
	return fetchResult{record: rec, anomalies: anomalies}
}

// ListCompletedRecords lists and loads the current snapshot in one call.
func (s *Store) ListCompletedRecords(ctx context.Context) ([]model.EvaluationRecord, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records, _, err := s.Load(ctx, snap)
	return records, err
}
