package services

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundpulse/internal/cache"
)

func TestMapOrderedPreservesInputOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	got := mapOrdered(context.Background(), items, 4, func(_ context.Context, _ int, item string) string {
		// Randomized completion order must never leak into the output.
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return item + "!"
	})
	require.Len(t, got, len(items))
	for i, item := range items {
		assert.Equal(t, item+"!", got[i])
	}
}

func TestMapOrderedHonorsLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	items := make([]int, 30)
	mapOrdered(context.Background(), items, 5, func(_ context.Context, i int, _ int) int {
		cur := inflight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return i
	})
	assert.LessOrEqual(t, peak.Load(), int32(5))
}

func TestMapOrderedEmpty(t *testing.T) {
	got := mapOrdered(context.Background(), nil, 3, func(_ context.Context, _ int, v int) int { return v })
	assert.Empty(t, got)
}

func TestFetchCachedCachesSuccessOnly(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	calls := 0

	_, err := fetchCached(ctx, mem, "k", time.Minute, func(context.Context) (string, error) {
		calls++
		return "", assert.AnError
	})
	require.Error(t, err)

	got, err := fetchCached(ctx, mem, "k", time.Minute, func(context.Context) (string, error) {
		calls++
		return "v", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	// Third call served from cache.
	got, err = fetchCached(ctx, mem, "k", time.Minute, func(context.Context) (string, error) {
		calls++
		return "other", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, 2, calls)
}
