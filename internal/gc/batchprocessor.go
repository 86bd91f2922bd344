package gc

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// runBatches executes fn for every item in items, at most concurrency at a
// time, and returns how many items succeeded and how many failed. A panicking fn
// call is recovered, logged, and its item treated as unprocessed — it will
// be retried on the next GC cycle rather than crashing the host task
// (§4.9 "Batch Processor").
func runBatches[T any](ctx context.Context, items []T, concurrency int, logger *slog.Logger, fn func(context.Context, T) error) (succeeded int, failed int) {
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	g, gctx := errgroup.WithContext(ctx)

	results := make([]bool, len(items))
	for i, item := range items {
		i, item := i, item
		sem <- struct{}{}
		g.Go(func() (err error) {
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("gc: batch item panicked, will retry next cycle", "panic", r)
					results[i] = false
				}
			}()
			if callErr := fn(gctx, item); callErr != nil {
				logger.Warn("gc: batch item failed, will retry next cycle", "err", callErr)
				results[i] = false
				return nil // do not abort sibling work in the same batch
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range results {
		if ok {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
