package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ordered runs fn over in with at most workers goroutines and hands each
// result to emit in input order, as soon as every earlier element has been
// emitted. Per-element errors go to emit; Ordered itself only fails when ctx
// is done, in which case the remaining elements are not emitted.
//
// emit runs on the calling goroutine.
func Ordered[T any, R any](
	ctx context.Context,
	in []T,
	workers int,
	fn func(context.Context, T) (R, error),
	emit func(int, R, error),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	type result struct {
		val R
		err error
	}
	slots := make([]chan result, len(in))
	for i := range slots {
		slots[i] = make(chan result, 1)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, v := range in {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				r, err := fn(ctx, v)
				slots[i] <- result{r, err}
				return nil
			})
		}
	}()
	defer func() {
		<-launched
		_ = g.Wait()
	}()

	for i := range in {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case r := <-slots[i]:
			emit(i, r.val, r.err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
