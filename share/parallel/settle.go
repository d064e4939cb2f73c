package parallel

import (
	"context"
	"sync"

	"wow_check/share/semaphore"
)

// Settle runs every fn with at most workers running at once and returns
// each one's error at its index. A failing fn never cancels its siblings.
// Functions not yet started when ctx ends get ctx.Err().
func Settle(ctx context.Context, workers int, fns ...func(ctx context.Context) error) []error {
	errs := make([]error, len(fns))
	if len(fns) == 0 {
		return errs
	}
	if workers < 1 || workers > len(fns) {
		workers = len(fns)
	}

	sema := semaphore.New(workers)

	var wg sync.WaitGroup
	for i, fn := range fns {
		if err := sema.AcquireContext(ctx); err != nil {
			for k := i; k < len(fns); k++ {
				errs[k] = err
			}
			break
		}

		wg.Add(1)
		go func(i int, fn func(ctx context.Context) error) {
			defer wg.Done()
			defer sema.Release()

			errs[i] = fn(ctx)
		}(i, fn)
	}
	wg.Wait()

	return errs
}
