// Package search implements the Search/Bookmark Facade (SB) from spec.md
// §4.5: rank↔visual-row lookups, nearest-match navigation, physical↔visual
// remapping, and bookmark navigation. Grounded conceptually on
// app_tab_annotation.go's row-index-based annotation lookups (surviving
// re-sort/re-filter) and its sort.Search-based index map idiom,
// generalized from "row annotation" to "bookmark" and "sorted row index".
package search

import (
	"sort"

	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/pipeline"
)

// Facade answers the rank/visual-row/physical-row queries spec.md §4.5
// defines against a single Pipeline Worker result snapshot. It is
// immutable: a new pipeline run produces a new Facade.
type Facade struct {
	// visibleIndices is nil in search-only mode (no processing layers):
	// every physical row is visible and equals its own visual row.
	visibleIndices []int
	// searchMatches holds visual rows (filtered+search mode) or physical
	// indices (search-only mode), always ascending — pipeline.Run
	// guarantees this ordering in both modes.
	searchMatches []int
}

// New builds a Facade over a Pipeline Worker result.
func New(res *pipeline.Result) *Facade {
	return &Facade{visibleIndices: res.VisibleIndices, searchMatches: res.SearchMatches}
}

// MatchIndex implements match_index(rank) -> visual_row: O(1) lookup, -1 if
// rank is out of range.
func (f *Facade) MatchIndex(rank int) int {
	if rank < 0 || rank >= len(f.searchMatches) {
		return -1
	}
	return f.searchMatches[rank]
}

// MatchesRange implements matches_range(start_rank, count) -> [visual_row],
// clamped to the available match table.
func (f *Facade) MatchesRange(startRank, count int) []int {
	if startRank < 0 || startRank >= len(f.searchMatches) || count <= 0 {
		return nil
	}
	end := startRank + count
	if end > len(f.searchMatches) {
		end = len(f.searchMatches)
	}
	out := make([]int, end-startRank)
	copy(out, f.searchMatches[startRank:end])
	return out
}

// Direction selects which way Nearest and NearestBookmark search.
type Direction int

const (
	Next Direction = iota
	Prev
)

// Nearest implements nearest(current_visual, "next"|"prev") -> rank: a
// binary search over search_matches. "next" returns the rank of the
// smallest match strictly greater than currentVisual, wrapping to rank 0;
// "prev" returns the rank of the largest match strictly less, wrapping to
// the last rank. ok is false only when there are no matches at all.
func (f *Facade) Nearest(currentVisual int, dir Direction) (rank int, ok bool) {
	_, rank, ok = nearestValue(f.searchMatches, currentVisual, dir)
	return rank, ok
}

// PhysicalToVisual implements physical_to_visual(phys) -> visual: a binary
// search over visible_indices. If phys was filtered out, it returns the
// nearest preceding visible row's visual index, or 0 if none precede it.
// In search-only mode (no processing layers), every row is visible and
// visual == physical.
func (f *Facade) PhysicalToVisual(phys int) int {
	if f.visibleIndices == nil {
		return phys
	}
	vi := f.visibleIndices
	pos := sort.Search(len(vi), func(i int) bool { return vi[i] >= phys })
	if pos < len(vi) && vi[pos] == phys {
		return pos
	}
	if pos == 0 {
		return 0
	}
	return pos - 1
}

// nearestValue finds the next/prev element of sorted (ascending, no
// duplicates) relative to current, wrapping around the ends. It returns
// the element's value, its index within sorted, and whether sorted was
// non-empty. A current value equal to a sorted element is never itself
// returned, satisfying spec.md §4.5's "if the current row equals a match,
// skip it in the requested direction" without a separate equality check:
// "next" requires strictly greater, "prev" requires strictly less.
func nearestValue(sorted []int, current int, dir Direction) (value, idx int, ok bool) {
	if len(sorted) == 0 {
		return 0, 0, false
	}
	switch dir {
	case Next:
		pos := sort.Search(len(sorted), func(i int) bool { return sorted[i] > current })
		if pos == len(sorted) {
			pos = 0
		}
		return sorted[pos], pos, true
	default: // Prev
		pos := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= current })
		pos--
		if pos < 0 {
			pos = len(sorted) - 1
		}
		return sorted[pos], pos, true
	}
}

// NearestBookmark implements get_nearest_bookmark_index(cur, dir): unlike
// Nearest, it returns the bookmarked physical index itself (the bridge
// request surface names it an "index", not a rank).
func NearestBookmark(bm *layer.BookmarkLayer, currentPhysical int, dir Direction) (physical int, ok bool) {
	value, _, ok := nearestValue(bm.Indices(), currentPhysical, dir)
	return value, ok
}
