package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fundpulse/internal/cache"
)

// mapOrdered runs fn over items with at most limit in flight and returns
// one result per item. Results are written at the item's input index, so
// assembled order always matches the caller-supplied order regardless of
// completion order.
func mapOrdered[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, i int, item T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			out[i] = fn(gctx, i, item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fetchCached is the one cache-aside path every fetch goes through: serve
// a fresh cached value, otherwise run fn and cache its result on success.
// Errors are never cached.
func fetchCached[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if c != nil {
		if b, ok := c.Get(ctx, key); ok {
			var out T
			if err := cache.Unmarshal(b, &out); err == nil {
				return out, nil
			}
		}
	}
	out, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if c != nil {
		if b, merr := cache.Marshal(out); merr == nil {
			_ = c.Set(ctx, key, b, ttl)
		}
	}
	return out, nil
}
