package session

import (
	"sort"
	"strings"

	"github.com/loglayer/loglayer/internal/cache"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/substringengine"
)

// truncationSentinel is appended to any line longer than
// pipeline.MaxLineBytes (spec.md §4.4 edge cases). Truncation only ever
// affects display; the Pipeline Worker already decided visibility and
// search matches from the untruncated line.
const truncationSentinel = "… [truncated]"

// readState is the set of fields ReadWindow needs a single consistent
// snapshot of, taken once under the read lock (spec.md §4.8 step 1:
// "snapshot visible_indices and line_offsets locally").
type readState struct {
	visible   []int
	rendering []layer.RenderingLayer
	search    *pipeline.SearchConfig
	lineCount int
}

func (s *Session) snapshotForRead() readState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := readState{visible: s.visibleIndices, rendering: s.rendering, search: s.search}
	if s.index != nil {
		st.lineCount = s.index.LineCount()
	}
	return st
}

// ReadWindow decodes count rows starting at virtual row startVirtual,
// applying every Logic-stage transform, every Rendering layer's
// highlights/row-style (in reverse declaration order), the hidden bookmark
// layer, and a live search re-scan, per spec.md §4.8. Rows already present
// in the decoration cache are served from there; everything else is
// computed and cached under its virtual index. A closed mmap or a
// since-shrunk index is tolerated by returning fewer rows, never an error
// (spec.md §5/§7: "mmap-closed-during-read: return empty rows").
func (s *Session) ReadWindow(startVirtual, count int) []cache.Row {
	if count <= 0 {
		return nil
	}

	s.mu.RLock()
	closed := s.mapping == nil || s.mapping.Closed()
	s.mu.RUnlock()
	if closed {
		return nil
	}

	st := s.snapshotForRead()

	rows := make([]cache.Row, 0, count)
	for v := startVirtual; v < startVirtual+count; v++ {
		phys, ok := resolvePhysical(st.visible, st.lineCount, v)
		if !ok {
			break
		}

		if row, hit := s.cache.Get(v); hit {
			rows = append(rows, row)
			continue
		}

		row, ok := s.decodeRow(v, phys, st)
		if !ok {
			break
		}
		s.cache.Put(v, row)
		rows = append(rows, row)
	}
	return rows
}

// resolvePhysical maps a virtual row index to a physical line index: the
// identity mapping when unfiltered (visible is nil), otherwise a table
// lookup (spec.md §3). Returns false once v runs past the end of whichever
// table is authoritative, so a race against a shrinking file degrades to
// "fewer rows" instead of a panic.
func resolvePhysical(visible []int, lineCount, v int) (int, bool) {
	if visible != nil {
		if v < 0 || v >= len(visible) {
			return 0, false
		}
		return visible[v], true
	}
	if v < 0 || v >= lineCount {
		return 0, false
	}
	return v, true
}

// decodeRow performs steps 2-5 of the windowed-read algorithm for a single
// row: slice the mmap, decode, cascade Logic transforms, apply rendering
// decorations in reverse order, merge the bookmark mark, and re-scan for an
// active search query.
func (s *Session) decodeRow(v, phys int, st readState) (cache.Row, bool) {
	s.mu.RLock()
	mapping, index, processing, sourceFile := s.mapping, s.index, s.processing, s.sourceFile
	s.mu.RUnlock()

	if mapping == nil || mapping.Closed() || index == nil {
		return cache.Row{}, false
	}
	if phys < 0 || phys >= index.LineCount() {
		return cache.Row{}, false
	}

	start, end := index.Span(phys)
	data := mapping.Bytes()
	if end > int64(len(data)) || start > end {
		return cache.Row{}, false
	}
	raw := data[start:end]

	content := strings.ToValidUTF8(string(raw), "�")
	content = strings.TrimRight(content, "\r\n")

	truncated := false
	if len(content) > pipeline.MaxLineBytes {
		content = content[:pipeline.MaxLineBytes]
		truncated = true
	}

	content = cascadeLogicTransforms(processing, content)
	if truncated {
		content += truncationSentinel
	}

	row := cache.Row{Index: v, Content: content}
	if sourceFile != nil {
		row.SourceFile = sourceFile(phys)
	}

	for i := len(st.rendering) - 1; i >= 0; i-- {
		rl := st.rendering[i]
		if !rl.Enabled() {
			continue
		}
		row.Highlights = append(row.Highlights, rl.Highlights(content)...)
		if !row.HasRowStyle {
			if style, ok := rl.RowStyle(content); ok {
				row.RowStyle = style
				row.HasRowStyle = true
			}
		}
	}

	if comment, marked := s.bookmark.Lookup(phys); marked {
		row.IsMarked = true
		row.BookmarkComment = comment
	}

	if st.search != nil && st.search.Query != "" {
		flags := substringengine.Flags{
			Regex:      st.search.IsRegex,
			IgnoreCase: !st.search.CaseSensitive,
			WholeWord:  st.search.WholeWord,
		}
		if spans, err := substringengine.FindAllIndex(st.search.Query, flags, content); err == nil {
			for _, span := range spans {
				row.Highlights = append(row.Highlights, layer.HighlightSpan{
					Start: span[0], End: span[1], IsSearch: true,
				})
			}
		}
	}

	return row, true
}

// cascadeLogicTransforms applies every enabled Logic-stage layer's Process
// in declared order, ignoring Filter entirely — visibility was already
// decided by the Pipeline Worker; a windowed read only needs the content
// transform (spec.md §4.8 step 3).
func cascadeLogicTransforms(processing []layer.ProcessingLayer, content string) string {
	for _, p := range processing {
		if !p.Enabled() || p.Stage() != layer.Logic {
			continue
		}
		content = p.NewRun().Process(content)
	}
	return content
}

// GetLinesByIndices decodes an arbitrary, unordered set of virtual rows
// (spec.md §4.7's get_lines_by_indices), deduplicating and serving cache
// hits the same way ReadWindow does.
func (s *Session) GetLinesByIndices(virtualIndices []int) []cache.Row {
	st := s.snapshotForRead()

	s.mu.RLock()
	closed := s.mapping == nil || s.mapping.Closed()
	s.mu.RUnlock()
	if closed {
		return nil
	}

	sorted := append([]int(nil), virtualIndices...)
	sort.Ints(sorted)

	rows := make([]cache.Row, 0, len(sorted))
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			continue
		}
		phys, ok := resolvePhysical(st.visible, st.lineCount, v)
		if !ok {
			continue
		}
		if row, hit := s.cache.Get(v); hit {
			rows = append(rows, row)
			continue
		}
		row, ok := s.decodeRow(v, phys, st)
		if !ok {
			continue
		}
		s.cache.Put(v, row)
		rows = append(rows, row)
	}
	return rows
}
