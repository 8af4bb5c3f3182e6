package rac

import (
	"context"
	"sync"
)

// ProgressFunc is called after each molecule of a batch finishes. Calls are
// serialized; done counts finished molecules including failures.
type ProgressFunc func(done, total int)

// itemResult is the outcome of one batch item. skipped marks items that were
// never started because the batch context ended.
type itemResult[R any] struct {
	value   R
	err     error
	skipped bool
}

// runBounded applies fn to every item with at most concurrency items in
// flight. Results are indexed like items. With stopOnError the first failure
// stops scheduling; items not yet started are marked skipped.
func runBounded[T, R any](
	ctx context.Context,
	items []T,
	concurrency int,
	stopOnError bool,
	fn func(ctx context.Context, item T) (R, error),
	progress ProgressFunc,
) []itemResult[R] {
	n := len(items)
	results := make([]itemResult[R], n)
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, concurrency)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

schedule:
	for i := 0; i < n; i++ {
		if runCtx.Err() != nil {
			markSkipped(results[i:], runCtx.Err())
			break
		}
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			markSkipped(results[i:], runCtx.Err())
			break schedule
		}

		wg.Add(1)
		go func(idx int, item T) {
			defer wg.Done()
			defer func() { <-sem }()

			v, err := fn(runCtx, item)
			results[idx] = itemResult[R]{value: v, err: err}
			if err != nil && stopOnError {
				cancel()
			}
			if progress != nil {
				mu.Lock()
				done++
				progress(done, n)
				mu.Unlock()
			}
		}(i, items[i])
	}

	wg.Wait()
	return results
}

func markSkipped[R any](results []itemResult[R], err error) {
	for i := range results {
		results[i] = itemResult[R]{err: err, skipped: true}
	}
}
