package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/evalboard/internal/adapters/storage"
	"github.com/okian/evalboard/pkg/logger"
)

const defaultWorkers = 8

// Upload writes docs through w with at most workers concurrent puts. A
// failed put is counted and logged; only cancellation aborts the upload.
func Upload(ctx context.Context, w storage.Writer, docs []Document, workers int, verbose bool) (uploaded, failed int, err error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	log := logger.GetOrNop()
	log.Info(ctx, "uploading records", logger.Int("records", len(docs)), logger.Int("workers", workers))

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			data, err := json.Marshal(doc.Record)
			if err != nil {
				bad.Add(1)
				return nil
			}
			if err := w.Put(gctx, doc.Key, data); err != nil {
				bad.Add(1)
				log.Warn(gctx, "put failed", logger.String("key", doc.Key), logger.Error(err))
				return nil
			}
			ok.Add(1)
			if verbose {
				log.Debug(gctx, "uploaded", logger.String("key", doc.Key))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return int(ok.Load()), int(bad.Load()), fmt.Errorf("upload interrupted: %w", err)
	}
	return int(ok.Load()), int(bad.Load()), nil
}
