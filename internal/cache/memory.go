// Package cache holds the analysis result caches: a bounded in-process LRU
// and an optional Redis store shared between instances.
package cache

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"resumescore/internal/types"
)

// Store is a shared result cache keyed by resume text. Misses are reported
// with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, text string) (analysis types.ResumeAnalysis, ok bool, err error)
	Set(ctx context.Context, text string, analysis types.ResumeAnalysis) error
}

// MemoryStats is a snapshot of an LRU's counters.
type MemoryStats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Memory is a size-bounded LRU safe for concurrent use.
type Memory[K comparable, V any] struct {
	lru       *lru.Cache[K, V]
	capacity  atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func NewMemory[K comparable, V any](capacity int) (*Memory[K, V], error) {
	m := &Memory[K, V]{}
	l, err := lru.NewWithEvict[K, V](capacity, func(K, V) {
		m.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	m.lru = l
	m.capacity.Store(int64(capacity))
	return m, nil
}

// Get returns the value for key and marks it most recently used.
func (m *Memory[K, V]) Get(key K) (V, bool) {
	v, ok := m.lru.Get(key)
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok
}

// Peek returns the value without touching recency or counters.
func (m *Memory[K, V]) Peek(key K) (V, bool) {
	return m.lru.Peek(key)
}

func (m *Memory[K, V]) Add(key K, value V) {
	m.lru.Add(key, value)
}

func (m *Memory[K, V]) Len() int {
	return m.lru.Len()
}

func (m *Memory[K, V]) Purge() {
	m.lru.Purge()
}

// Resize changes the capacity, evicting the oldest entries if it shrinks.
func (m *Memory[K, V]) Resize(capacity int) int {
	evicted := m.lru.Resize(capacity)
	m.capacity.Store(int64(capacity))
	return evicted
}

func (m *Memory[K, V]) Stats() MemoryStats {
	return MemoryStats{
		Entries:   m.lru.Len(),
		Capacity:  int(m.capacity.Load()),
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
	}
}
