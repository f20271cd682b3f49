package session

import (
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/search"
)

// Facade builds a search.Facade over the session's current visible/matches
// tables, for match_index/matches_range/nearest/physical_to_visual queries
// (spec.md §4.5).
func (s *Session) Facade() *search.Facade {
	visible, matches := s.Tables()
	return search.New(&pipeline.Result{VisibleIndices: visible, SearchMatches: matches})
}

// ToggleBookmark flips the bookmark mark at physical index phys and
// invalidates the decoration cache so the next read reflects it.
func (s *Session) ToggleBookmark(phys int) {
	s.bookmark.Toggle(phys)
	s.InvalidateCache()
}

// SetBookmarkComment sets or clears the comment at phys, marking it if
// necessary, and invalidates the decoration cache.
func (s *Session) SetBookmarkComment(phys int, text string) {
	s.bookmark.SetComment(phys, text)
	s.InvalidateCache()
}

// ClearBookmarks removes every mark and invalidates the decoration cache.
func (s *Session) ClearBookmarks() {
	s.bookmark.Clear()
	s.InvalidateCache()
}

// NearestBookmark finds the next or previous marked physical index relative
// to currentPhysical, wrapping at the ends (spec.md §4.5).
func (s *Session) NearestBookmark(currentPhysical int, dir search.Direction) (int, bool) {
	return search.NearestBookmark(s.bookmark, currentPhysical, dir)
}
