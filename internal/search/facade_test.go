package search

import (
	"reflect"
	"testing"

	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/pipeline"
)

func TestMatchIndexAndRange(t *testing.T) {
	f := New(&pipeline.Result{VisibleIndices: []int{0, 1, 3, 4}, SearchMatches: []int{0, 2}})

	if f.MatchIndex(0) != 0 {
		t.Fatalf("MatchIndex(0) = %d, want 0", f.MatchIndex(0))
	}
	if f.MatchIndex(1) != 2 {
		t.Fatalf("MatchIndex(1) = %d, want 2", f.MatchIndex(1))
	}
	if f.MatchIndex(2) != -1 {
		t.Fatalf("MatchIndex(2) = %d, want -1 (out of range)", f.MatchIndex(2))
	}
	if f.MatchIndex(-1) != -1 {
		t.Fatalf("MatchIndex(-1) = %d, want -1", f.MatchIndex(-1))
	}
	if !reflect.DeepEqual(f.MatchesRange(0, 10), []int{0, 2}) {
		t.Fatalf("MatchesRange(0,10) = %v", f.MatchesRange(0, 10))
	}
	if f.MatchesRange(5, 1) != nil {
		t.Fatalf("MatchesRange out of range should be nil, got %v", f.MatchesRange(5, 1))
	}
}

func TestNearestWrapsAndSkipsCurrentMatch(t *testing.T) {
	f := New(&pipeline.Result{SearchMatches: []int{2, 5, 9}})

	if rank, ok := f.Nearest(5, Next); !ok || rank != 2 {
		t.Fatalf("Nearest(5, Next) = %d,%v, want 2,true (skip self, land on 9)", rank, ok)
	}
	if rank, ok := f.Nearest(9, Next); !ok || rank != 0 {
		t.Fatalf("Nearest(9, Next) = %d,%v, want 0,true (wrap)", rank, ok)
	}
	if rank, ok := f.Nearest(5, Prev); !ok || rank != 0 {
		t.Fatalf("Nearest(5, Prev) = %d,%v, want 0,true", rank, ok)
	}
	if rank, ok := f.Nearest(2, Prev); !ok || rank != 2 {
		t.Fatalf("Nearest(2, Prev) = %d,%v, want 2,true (wrap)", rank, ok)
	}
}

func TestNearestSoleMatchWrapsToItself(t *testing.T) {
	f := New(&pipeline.Result{SearchMatches: []int{7}})
	rank, ok := f.Nearest(7, Next)
	if !ok || rank != 0 {
		t.Fatalf("Nearest(7, Next) = %d,%v, want 0,true", rank, ok)
	}
}

func TestNearestNoMatches(t *testing.T) {
	f := New(&pipeline.Result{})
	if _, ok := f.Nearest(0, Next); ok {
		t.Fatalf("expected ok=false with no matches")
	}
}

func TestPhysicalToVisualFilteredMode(t *testing.T) {
	f := New(&pipeline.Result{VisibleIndices: []int{1, 3, 4, 8}})

	cases := []struct {
		phys, want int
	}{
		{1, 0},
		{3, 1},
		{8, 3},
		{0, 0}, // before any visible row
		{2, 0}, // filtered out, nearest preceding is index 0 (phys 1)
		{5, 2}, // filtered out, nearest preceding is index 2 (phys 4)
		{100, 3},
	}
	for _, c := range cases {
		if got := f.PhysicalToVisual(c.phys); got != c.want {
			t.Fatalf("PhysicalToVisual(%d) = %d, want %d", c.phys, got, c.want)
		}
	}
}

func TestPhysicalToVisualSearchOnlyMode(t *testing.T) {
	f := New(&pipeline.Result{VisibleIndices: nil, SearchMatches: []int{0, 2}})
	if f.PhysicalToVisual(5) != 5 {
		t.Fatalf("search-only mode should be identity, got %d", f.PhysicalToVisual(5))
	}
}

func TestNearestBookmarkWrapsAndSkipsCurrent(t *testing.T) {
	bl := layer.NewBookmarkLayer("bm1")
	bl.Toggle(2)
	bl.Toggle(5)
	bl.Toggle(9)

	if phys, ok := NearestBookmark(bl, 5, Next); !ok || phys != 9 {
		t.Fatalf("NearestBookmark(5, Next) = %d,%v, want 9,true", phys, ok)
	}
	if phys, ok := NearestBookmark(bl, 9, Next); !ok || phys != 2 {
		t.Fatalf("NearestBookmark(9, Next) = %d,%v, want 2,true (wrap)", phys, ok)
	}
}

func TestNearestBookmarkEmpty(t *testing.T) {
	bl := layer.NewBookmarkLayer("bm1")
	if _, ok := NearestBookmark(bl, 0, Next); ok {
		t.Fatalf("expected ok=false with no bookmarks")
	}
}
