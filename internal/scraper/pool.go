package scraper

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// PanicError is the error a task that panicked resolves to.
type PanicError struct {
	Value any
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// fanOut runs task(i) for every i in [0, n) with at most workers running at
// once and returns the error of each task in its own slot. A panicking task
// resolves to a PanicError and does not affect the others.
func fanOut(workers, n int, task func(i int) error) []error {
	if workers <= 0 {
		workers = 1
	}
	errs := make([]error, n)

	group := errgroup.Group{}
	group.SetLimit(workers)
	for i := 0; i < n; i++ {
		group.Go(func() error {
			defer func() {
				r := recover()
				if r != nil {
					errs[i] = PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			errs[i] = task(i)
			return nil
		})
	}
	group.Wait()

	return errs
}
