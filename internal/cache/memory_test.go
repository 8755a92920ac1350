package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	m, err := NewMemory[string, int](2)
	require.NoError(t, err)

	m.Add("a", 1)
	m.Add("b", 2)
	_, ok := m.Get("a") // a is now most recent
	require.True(t, ok)
	m.Add("c", 3)

	_, ok = m.Peek("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestMemoryRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewMemory[string, int](0)
	assert.Error(t, err)
}

func TestMemoryResize(t *testing.T) {
	m, err := NewMemory[int, int](4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		m.Add(i, i)
	}

	evicted := m.Resize(2)
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 2, m.Stats().Capacity)

	_, ok := m.Peek(3)
	assert.True(t, ok)
	_, ok = m.Peek(0)
	assert.False(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m, err := NewMemory[string, int](64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%d-%d", g, i%80)
				m.Add(key, i)
				m.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.Len(), 64)
}
