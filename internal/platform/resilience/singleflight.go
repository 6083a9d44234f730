package resilience

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Flight collapses concurrent loads of the same key into one call.
// The shared call ignores the first caller's cancellation; every caller stops waiting when its own ctx is done.
type Flight[T any] struct {
	group singleflight.Group
}

func (f *Flight[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	ch := f.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		value, _ := res.Val.(T)
		return value, res.Shared, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (f *Flight[T]) Forget(key string) {
	f.group.Forget(key)
}
