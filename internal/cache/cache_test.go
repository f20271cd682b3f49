package cache

import "testing"

func TestRowCacheGetPutHit(t *testing.T) {
	c := NewRowCache(3)
	c.Put(0, Row{Index: 0, Content: "a"})
	row, ok := c.Get(0)
	if !ok || row.Content != "a" {
		t.Fatalf("Get(0) = %+v, %v", row, ok)
	}
}

func TestRowCacheMissOnUncached(t *testing.T) {
	c := NewRowCache(3)
	if _, ok := c.Get(5); ok {
		t.Fatalf("expected miss for an uncached row")
	}
}

func TestRowCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewRowCache(2)
	c.Put(0, Row{Index: 0})
	c.Put(1, Row{Index: 1})
	// touch 0 so 1 becomes the LRU entry
	c.Get(0)
	c.Put(2, Row{Index: 2})

	if _, ok := c.Get(1); ok {
		t.Fatalf("expected row 1 to have been evicted")
	}
	if _, ok := c.Get(0); !ok {
		t.Fatalf("expected row 0 to still be cached")
	}
	if _, ok := c.Get(2); !ok {
		t.Fatalf("expected row 2 to be cached")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestRowCacheUpdateExistingKeyDoesNotEvict(t *testing.T) {
	c := NewRowCache(2)
	c.Put(0, Row{Index: 0, Content: "a"})
	c.Put(1, Row{Index: 1, Content: "b"})
	c.Put(0, Row{Index: 0, Content: "a-updated"})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	row, ok := c.Get(0)
	if !ok || row.Content != "a-updated" {
		t.Fatalf("Get(0) = %+v, %v", row, ok)
	}
	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected row 1 to still be cached")
	}
}

func TestRowCacheClear(t *testing.T) {
	c := NewRowCache(3)
	c.Put(0, Row{Index: 0})
	c.Put(1, Row{Index: 1})
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Clear", c.Len())
	}
	if _, ok := c.Get(0); ok {
		t.Fatalf("expected miss after Clear")
	}
}

func TestRowCacheDefaultCapacity(t *testing.T) {
	c := NewRowCache(0)
	if c.capacity != DefaultCapacity {
		t.Fatalf("capacity = %d, want DefaultCapacity", c.capacity)
	}
}
