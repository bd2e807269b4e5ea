// Package concurrent provides the sharded score accumulator and the
// parallel sort used by the parallel query path.
package concurrent

import (
	"sync"

	"github.com/huandu/skiplist"
)

// Map is a fixed-size array of buckets, each holding an ordered mapping
// from document id to score behind its own mutex. A key lands in bucket
// uint(key) % len(buckets), so goroutines working on disjoint buckets
// never contend.
type Map struct {
	buckets []bucket
}

type bucket struct {
	mu      sync.Mutex
	entries *skiplist.SkipList
}

// NewMap creates a Map with the given bucket count, clamped to at least
// one bucket.
func NewMap(buckets int) *Map {
	if buckets < 1 {
		buckets = 1
	}
	m := &Map{buckets: make([]bucket, buckets)}
	for i := range m.buckets {
		m.buckets[i].entries = skiplist.New(skiplist.Int)
	}
	return m
}

func (m *Map) bucketFor(key int) *bucket {
	return &m.buckets[uint(key)%uint(len(m.buckets))]
}

// Update applies fn to the value stored under key while holding the
// bucket's lock. A key touched for the first time starts at zero. The
// lock is released when Update returns, so fn must not block on other
// buckets.
func (m *Map) Update(key int, fn func(v *float64)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if elem := b.entries.Get(key); elem != nil {
		v := elem.Value.(float64)
		fn(&v)
		elem.Value = v
		return
	}
	var v float64
	fn(&v)
	b.entries.Set(key, v)
}

// Add is Update with a plain increment.
func (m *Map) Add(key int, delta float64) {
	m.Update(key, func(v *float64) { *v += delta })
}

// Delete removes key from its bucket if present.
func (m *Map) Delete(key int) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.Remove(key)
}

// Build drains every bucket under its lock into a single ordered mapping
// keyed by document id. It is the terminal operation: the buckets are
// emptied and no Update may be in flight while Build runs.
func (m *Map) Build() *skiplist.SkipList {
	out := skiplist.New(skiplist.Int)
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		for elem := b.entries.Front(); elem != nil; elem = elem.Next() {
			out.Set(elem.Key(), elem.Value)
		}
		b.entries.Init()
		b.mu.Unlock()
	}
	return out
}
