package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one request in a batch. Exactly one of
// Analysis and Err is set.
type BatchResult struct {
	Label    string    `json:"label"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Err      error     `json:"-"`
}

// SinkFunc receives each successful analysis, e.g. to persist it. A sink
// error marks that request failed without aborting the batch.
type SinkFunc func(ctx context.Context, an *Analysis) error

// AnalyzeBatch analyzes independent requests concurrently, at most
// concurrency at a time. Results keep request order. Individual failures
// are recorded in their BatchResult; only context cancellation fails the
// whole batch.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request, concurrency int, sink SinkFunc) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("requests", len(reqs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, req := range reqs {
		results[i].Label = req.Label
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			an, err := a.Analyze(req)
			if err == nil && sink != nil {
				if sErr := sink(gctx, an); sErr != nil {
					err = eris.Wrap(sErr, "pipeline: save analysis")
				}
			}
			if err != nil {
				failed.Add(1)
				results[i].Err = err
				zap.L().Error("pipeline: batch item failed", zap.String("label", req.Label), zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			results[i].Analysis = an
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "pipeline: batch processing")
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}
