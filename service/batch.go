package service

import (
	"context"
	"sync"
)

// runBounded runs job for each index with at most workers goroutines. Every
// job knows its index, so callers collect results into pre-sized slices and
// input order survives the fan-out. Once ctx ends, queued jobs are skipped;
// running ones finish on their own.
func runBounded(ctx context.Context, count, workers int, job func(ctx context.Context, i int)) {
	if count == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				if ctx.Err() != nil {
					continue
				}
				job(ctx, i)
			}
		}()
	}

	for i := 0; i < count; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}
