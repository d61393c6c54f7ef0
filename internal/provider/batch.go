package provider

import (
	"context"
	"sync"
)

// forEachBatch invokes fn for indexes [0, n) in batches of at most size
// concurrent calls. It stops between batches once ctx is cancelled and
// returns the context error. fn is responsible for its own error handling;
// a failed item degrades data rather than aborting the batch.
func forEachBatch(ctx context.Context, n, size int, fn func(ctx context.Context, i int)) error {
	if size <= 0 {
		size = 1
	}

	for start := 0; start < n; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+size, n)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				fn(ctx, i)
			}(i)
		}
		wg.Wait()
	}

	return ctx.Err()
}
