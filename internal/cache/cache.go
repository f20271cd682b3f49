// Package cache implements the windowed-read row cache (spec.md §3/§4.8):
// a bounded, LRU-evicted cache of fully decorated rows keyed by virtual
// row index.
package cache

import (
	"sync"

	"github.com/loglayer/loglayer/internal/layer"
)

// DefaultCapacity is the cache size named in spec.md §4.8 ("e.g., 5000
// entries").
const DefaultCapacity = 5000

// Row is a cached, fully decorated line ready for windowed-read output.
type Row struct {
	Index           int
	Content         string
	Highlights      []layer.HighlightSpan
	RowStyle        layer.RowStyle
	HasRowStyle     bool
	IsMarked        bool
	BookmarkComment string
	// SourceFile names the file a row came from, set only for a directory
	// session's synthetic concatenation (SPEC_FULL.md §5); empty for an
	// ordinary single-file session.
	SourceFile string
}

// RowCache is a bounded LRU cache of Rows keyed by virtual row index.
// Adapted from app/cache/lru.go's eviction-order list: that LRUList only
// tracks key order and leaves value storage to the caller, which for a
// single int-keyed value cache would just mean threading two structures
// everywhere they're used — RowCache folds the value map and the
// eviction list into one type instead.
type RowCache struct {
	mu       sync.Mutex
	capacity int
	values   map[int]Row
	order    *lruList
}

// NewRowCache returns an empty cache bounded at capacity entries. A
// capacity <= 0 uses DefaultCapacity.
func NewRowCache(capacity int) *RowCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RowCache{
		capacity: capacity,
		values:   make(map[int]Row),
		order:    newLRUList(),
	}
}

// Get returns the cached row for virtual index v, marking it
// most-recently-used on a hit.
func (c *RowCache) Get(v int) (Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, ok := c.values[v]
	if !ok {
		return Row{}, false
	}
	c.order.moveToFrontByKey(v)
	return row, true
}

// Put inserts or updates the cached row for virtual index v, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *RowCache) Put(v int, row Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.values[v]; !exists && c.order.size >= c.capacity {
		if oldest, ok := c.order.removeOldest(); ok {
			delete(c.values, oldest)
		}
	}
	c.values[v] = row
	c.order.addToFront(v)
}

// Clear empties the cache. Spec.md §3/§4.8 requires this on any
// invalidation event: a pipeline rerun, a decoration-only sync, or a
// bookmark change.
func (c *RowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[int]Row)
	c.order = newLRUList()
}

// Len reports the number of entries currently cached.
func (c *RowCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.size
}
