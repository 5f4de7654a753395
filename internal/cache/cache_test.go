package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 60*time.Millisecond))

	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	time.Sleep(90 * time.Millisecond)

	_, ok = m.Get(ctx, "k")
	assert.False(t, ok, "entry past its ttl must read as absent")
	assert.Equal(t, 0, m.Len(), "expired entry is removed on read")

	// A fresh Set after expiry reinserts.
	require.NoError(t, m.Set(ctx, "k", []byte("v2"), time.Minute))
	got, ok = m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(20 * time.Millisecond)
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok)
}

func TestMemorySetReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, "k", []byte("b"), time.Minute))
	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("b"), got)
	assert.Equal(t, 1, m.Len())
}

func TestMemorySweepIsBounded(t *testing.T) {
	ctx := context.Background()
	m := &Memory{items: make(map[string]memItem), def: time.Millisecond}

	for i := 0; i < 25; i++ {
		m.items[fmt.Sprintf("old-%d", i)] = memItem{
			val:      []byte("x"),
			inserted: time.Now().Add(-time.Second),
			ttl:      time.Minute,
		}
	}

	require.NoError(t, m.Set(ctx, "fresh", []byte("y"), time.Minute))
	// 25 stale entries, one sweep: at most sweepLimit evictions.
	assert.Equal(t, 25-sweepLimit+1, m.Len())

	require.NoError(t, m.Set(ctx, "fresh2", []byte("y"), time.Minute))
	assert.Equal(t, 25-2*sweepLimit+2, m.Len())
}

func TestMarshalRoundTrip(t *testing.T) {
	b, err := Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	var out map[string]int
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, 1, out["a"])
}
