// internal/store/memory_test.go

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "missing keys are not an error")

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, _, _ = kv.Get(ctx, "k")
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, kv.Len())
}

func TestMemoryKVConcurrent(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%5)
			_ = kv.Set(ctx, key, fmt.Sprintf("v-%d", n))
			_, _, _ = kv.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, kv.Len())
}

func TestScopedIsolation(t *testing.T) {
	base := NewMemory()
	ctx := context.Background()

	a := Scoped(base, "player:a")
	b := Scoped(base, "player:b")

	require.NoError(t, a.Set(ctx, "stats", "A"))
	require.NoError(t, b.Set(ctx, "stats", "B"))

	va, ok, err := a.Get(ctx, "stats")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", va)

	vb, _, _ := b.Get(ctx, "stats")
	assert.Equal(t, "B", vb)

	// The raw key layout is prefix/key.
	raw, ok, _ := base.Get(ctx, "player:a/stats")
	require.True(t, ok)
	assert.Equal(t, "A", raw)

	_, ok, _ = a.Get(ctx, "other")
	assert.False(t, ok)
}
