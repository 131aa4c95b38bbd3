package vectordb

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const maxParallelBatches = 4

// upsertInBatches splits records into chunks of batchSize and stores them
// in parallel. The first failing batch cancels the rest.
func upsertInBatches(ctx context.Context, records []Record, batchSize int, store func(context.Context, []Record) error) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	errs, ctx := errgroup.WithContext(ctx)
	errs.SetLimit(maxParallelBatches)

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		batch := records[i:end]
		errs.Go(func() error {
			return store(ctx, batch)
		})
	}

	return errs.Wait()
}
