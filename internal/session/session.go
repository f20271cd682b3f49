// Package session implements the File Session (S) data model from spec.md
// §3: per-file mmap, line-offset index, active layer instances, the
// visible/search-match tables, the decoration cache, and the windowed-read
// algorithm (§4.8). Session itself never spawns workers or emits events —
// that's internal/bridge's job — it only holds state and enforces the
// atomic-table-swap / mmap-closed-defensiveness invariants spec.md §5
// requires of anyone touching a session concurrently.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"

	"github.com/loglayer/loglayer/internal/cache"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/lineindex"
	"github.com/loglayer/loglayer/internal/pipeline"
)

// bookmarkLayerID names the hidden system-managed layer slot (Design Note:
// "preserve a hidden system-layer slot that the UI sync does not clobber").
const bookmarkLayerID = "__bookmark__"

// hashKey is a fixed 32-byte key for the content fingerprint (spec.md §3's
// "stable file identity"; SPEC_FULL.md §3 domain-stack wiring for
// minio/highwayhash). This is a fingerprint, not a MAC, so a fixed key is
// fine — only collision resistance across different file contents matters.
var hashKey = make([]byte, 32)

// Session is a single opened file's state.
type Session struct {
	mu sync.RWMutex

	FileID string
	Path   string
	Name   string
	Size   int64
	Hash   string

	mapping lineindex.Mapping
	index   *lineindex.Index

	processing []layer.ProcessingLayer
	rendering  []layer.RenderingLayer
	bookmark   *layer.BookmarkLayer
	search     *pipeline.SearchConfig

	visibleIndices []int
	searchMatches  []int

	cache *cache.RowCache

	// sourceFile resolves a physical index to its originating file name,
	// set only when the session is a directory-as-virtual-file
	// concatenation (SPEC_FULL.md §5); nil for an ordinary single-file
	// session, in which case ReadWindow leaves Row.SourceFile empty.
	sourceFile func(phys int) string
}

// Open memory-maps path and returns a new Session with no line index yet
// (the caller — the bridge — builds the index as its own tracked
// operation and calls SetIndex on completion, per spec.md §4.7's
// open_file: "memory-map the file; start LI; on LI finish, update
// session").
func Open(path string) (*Session, error) {
	m, err := lineindex.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	hash, err := contentHash(m.Bytes())
	if err != nil {
		m.Close()
		return nil, err
	}

	return &Session{
		FileID:   uuid.NewString(),
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		Hash:     hash,
		mapping:  m,
		bookmark: layer.NewBookmarkLayer(bookmarkLayerID),
		cache:    cache.NewRowCache(cache.DefaultCapacity),
	}, nil
}

func contentHash(data []byte) (string, error) {
	h, err := highwayhash.New128(hashKey)
	if err != nil {
		return "", fmt.Errorf("init content hash: %w", err)
	}
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// MappingBytes returns the session's raw mapped bytes, for the bridge's
// Line Index build — nil if the mapping has already been closed.
func (s *Session) MappingBytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Bytes()
}

// SetIndex installs a completed Line Index build.
func (s *Session) SetIndex(idx *lineindex.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
}

// LineCount reports the file's physical line count, or 0 before the index
// finishes building.
func (s *Session) LineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return 0
	}
	return s.index.LineCount()
}

// SetLayers installs a new processing/rendering layer set and search
// configuration (spec.md §4.7's sync_layers). It does not itself run the
// pipeline — the caller applies the Pipeline Worker's result afterward via
// ApplyPipelineResult. The hidden bookmark layer is never part of
// rendering; it is always merged in separately by ReadWindow.
func (s *Session) SetLayers(processing []layer.ProcessingLayer, rendering []layer.RenderingLayer, search *pipeline.SearchConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = processing
	s.rendering = rendering
	s.search = search
}

// SetDecorations replaces only the rendering layer set (spec.md §4.7's
// sync_decorations), clearing the decoration cache but leaving
// visible_indices/search_matches untouched — no pipeline rerun.
func (s *Session) SetDecorations(rendering []layer.RenderingLayer) {
	s.mu.Lock()
	s.rendering = rendering
	s.mu.Unlock()
	s.cache.Clear()
}

// Snapshot captures everything a pipeline run needs, independent of any
// later SetLayers call racing with the run in progress.
type Snapshot struct {
	Path       string
	Processing []layer.ProcessingLayer
	Search     *pipeline.SearchConfig
}

// Snapshot returns the current path/processing-layers/search configuration
// for a caller about to start a Pipeline Worker run.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Path: s.Path, Processing: s.processing, Search: s.search}
}

// Rendering returns the session's current Rendering layer set, for callers
// (the bridge's Search request) that need to re-install the session's
// layers without disturbing decorations they didn't mean to change.
func (s *Session) Rendering() []layer.RenderingLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rendering
}

// ApplyPipelineResult installs a completed Pipeline Worker result,
// atomically swapping in the new visible/search tables and clearing the
// decoration cache (spec.md §5: "new table object swapped in").
func (s *Session) ApplyPipelineResult(res *pipeline.Result) {
	s.mu.Lock()
	s.visibleIndices = res.VisibleIndices
	s.searchMatches = res.SearchMatches
	s.mu.Unlock()
	s.cache.Clear()
}

// Counts returns the current visible row count and search match count, for
// the bridge's pipeline_finished event.
func (s *Session) Counts() (visible, matches int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.visibleIndices != nil {
		visible = len(s.visibleIndices)
	} else if s.index != nil {
		visible = s.index.LineCount()
	}
	return visible, len(s.searchMatches)
}

// Tables returns the current visible_indices/search_matches tables
// (pointer-stable snapshots: Session always replaces the whole slice, never
// mutates one in place, so a caller holding these references sees a
// consistent pair even if ApplyPipelineResult runs concurrently).
func (s *Session) Tables() (visible, matches []int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibleIndices, s.searchMatches
}

// SetSourceResolver installs the physical-index -> source-file-name lookup
// for a directory-as-virtual-file session (SPEC_FULL.md §5). A nil resolver
// (the default) means ReadWindow never populates Row.SourceFile.
func (s *Session) SetSourceResolver(fn func(phys int) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourceFile = fn
}

// Bookmarks returns the hidden system-managed bookmark layer.
func (s *Session) Bookmarks() *layer.BookmarkLayer {
	return s.bookmark
}

// InvalidateCache clears the decoration cache, for bookmark mutations that
// don't go through SetLayers/SetDecorations.
func (s *Session) InvalidateCache() {
	s.cache.Clear()
}

// Close releases the mmap. Safe to call once; subsequent reads observe the
// "mmap closed" condition and return empty rows (spec.md §5/§7).
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Close()
}
