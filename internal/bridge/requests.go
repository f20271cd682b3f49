// Request-surface handlers (spec.md §6): everything the out-of-scope
// frontend/desktop-shell calls through, modeled here as plain Go methods
// rather than a specific transport — internal/wsserver adapts these to
// the WebSocket/HTTP wire.
package bridge

import (
	"errors"
	"fmt"

	"github.com/loglayer/loglayer/internal/cache"
	"github.com/loglayer/loglayer/internal/events"
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/search"
)

// ErrSessionNotFound is returned by request handlers that need to
// distinguish "no such session" from "valid but empty" — most handlers
// instead follow spec.md §7's "session-not-found: request returns
// empty/default" and silently no-op, per their doc comments below.
var ErrSessionNotFound = errors.New("bridge: session not found")

// SyncLayers implements spec.md §4.7's sync_layers: parse layers into
// Processing/Rendering, install them (and the search configuration) on the
// session, retire any running Pipeline/Stats Worker, and start fresh ones.
// PW and (if applicable) SW run asynchronously; their completion emits
// pipeline_finished/stats_finished, not this call's return.
func (b *Bridge) SyncLayers(fileID string, specs []LayerSpec, search *pipeline.SearchConfig) error {
	e := b.lookup(fileID)
	if e == nil {
		return ErrSessionNotFound
	}

	processing, rendering, err := buildLayers(b.registry, specs)
	if err != nil {
		return fmt.Errorf("sync_layers: %w", err)
	}

	e.sess.SetLayers(processing, rendering, search)
	all := allLayers(processing, rendering)

	b.runPipeline(e.baseCtx, fileID, e, processing, search)
	if hasQueryableLayer(all) {
		b.runStats(e.baseCtx, fileID, e, all)
	}
	return nil
}

// SyncDecorations implements spec.md §4.7's sync_decorations: replace only
// the Rendering layer set, clear the decoration cache, and emit
// pipeline_finished with the session's unchanged visible/match counts (a
// UI-refresh nudge, not a pipeline rerun). No PW or SW is started.
func (b *Bridge) SyncDecorations(fileID string, specs []LayerSpec) error {
	e := b.lookup(fileID)
	if e == nil {
		return ErrSessionNotFound
	}

	processing, rendering, err := buildLayers(b.registry, specs)
	if err != nil {
		return fmt.Errorf("sync_decorations: %w", err)
	}
	if len(processing) > 0 {
		return fmt.Errorf("sync_decorations: spec list contains a Processing layer type")
	}

	e.sess.SetDecorations(rendering)
	visible, matches := e.sess.Counts()
	b.sink.Emit(events.PipelineFinished{FileID: fileID, VisibleCount: visible, MatchCount: matches})
	return nil
}

// Search implements spec.md §4.7's search: update the session's search
// configuration and rerun exactly as sync_layers does, over the session's
// already-installed layers.
func (b *Bridge) Search(fileID string, cfg *pipeline.SearchConfig) error {
	e := b.lookup(fileID)
	if e == nil {
		return ErrSessionNotFound
	}

	snap := e.sess.Snapshot()
	e.sess.SetLayers(snap.Processing, e.sess.Rendering(), cfg)

	b.runPipeline(e.baseCtx, fileID, e, snap.Processing, cfg)
	all := allLayers(snap.Processing, e.sess.Rendering())
	if hasQueryableLayer(all) {
		b.runStats(e.baseCtx, fileID, e, all)
	}
	return nil
}

// ReadProcessedLines implements spec.md §4.8's read_processed_lines.
func (b *Bridge) ReadProcessedLines(fileID string, startVirtual, count int) []cache.Row {
	e := b.lookup(fileID)
	if e == nil {
		return nil
	}
	return e.sess.ReadWindow(startVirtual, count)
}

// GetLinesByIndices implements spec.md §6's get_lines_by_indices.
func (b *Bridge) GetLinesByIndices(fileID string, virtualIndices []int) []cache.Row {
	e := b.lookup(fileID)
	if e == nil {
		return nil
	}
	return e.sess.GetLinesByIndices(virtualIndices)
}

// GetSearchMatchIndex implements get_search_match_index(rank).
func (b *Bridge) GetSearchMatchIndex(fileID string, rank int) int {
	e := b.lookup(fileID)
	if e == nil {
		return -1
	}
	return e.sess.Facade().MatchIndex(rank)
}

// GetSearchMatchesRange implements get_search_matches_range(start, count).
func (b *Bridge) GetSearchMatchesRange(fileID string, startRank, count int) []int {
	e := b.lookup(fileID)
	if e == nil {
		return nil
	}
	return e.sess.Facade().MatchesRange(startRank, count)
}

// GetNearestSearchRank implements get_nearest_search_rank(cur, dir).
func (b *Bridge) GetNearestSearchRank(fileID string, current int, dir search.Direction) (rank int, ok bool) {
	e := b.lookup(fileID)
	if e == nil {
		return 0, false
	}
	return e.sess.Facade().Nearest(current, dir)
}

// PhysicalToVisualIndex implements physical_to_visual_index(phys).
func (b *Bridge) PhysicalToVisualIndex(fileID string, phys int) int {
	e := b.lookup(fileID)
	if e == nil {
		return 0
	}
	return e.sess.Facade().PhysicalToVisual(phys)
}

// ToggleBookmark implements toggle_bookmark(line) and emits
// pipeline_finished with unchanged counts (spec.md §4.7: bookmark
// operations "update only the decoration cache").
func (b *Bridge) ToggleBookmark(fileID string, phys int) {
	e := b.lookup(fileID)
	if e == nil {
		return
	}
	e.sess.ToggleBookmark(phys)
	b.emitUnchanged(fileID, e)
}

// UpdateBookmarkComment implements update_bookmark_comment(line, text).
func (b *Bridge) UpdateBookmarkComment(fileID string, phys int, text string) {
	e := b.lookup(fileID)
	if e == nil {
		return
	}
	e.sess.SetBookmarkComment(phys, text)
	b.emitUnchanged(fileID, e)
}

// GetBookmarks implements get_bookmarks: every marked physical index, in
// ascending order.
func (b *Bridge) GetBookmarks(fileID string) []int {
	e := b.lookup(fileID)
	if e == nil {
		return nil
	}
	return e.sess.Bookmarks().Indices()
}

// ClearBookmarks implements clear_bookmarks.
func (b *Bridge) ClearBookmarks(fileID string) {
	e := b.lookup(fileID)
	if e == nil {
		return
	}
	e.sess.ClearBookmarks()
	b.emitUnchanged(fileID, e)
}

// GetNearestBookmarkIndex implements get_nearest_bookmark_index(cur, dir).
func (b *Bridge) GetNearestBookmarkIndex(fileID string, current int, dir search.Direction) (phys int, ok bool) {
	e := b.lookup(fileID)
	if e == nil {
		return 0, false
	}
	return e.sess.NearestBookmark(current, dir)
}

// GetLayerRegistry implements get_layer_registry: every registered type id.
func (b *Bridge) GetLayerRegistry() []string {
	return b.registry.TypeIDs()
}

// ReloadPlugins implements reload_plugins, scanning dir for plugin
// manifests and registering any newly discovered type ids.
func (b *Bridge) ReloadPlugins(dir string) ([]string, error) {
	return b.registry.LoadPlugins(dir)
}

// emitUnchanged emits pipeline_finished with the session's current counts,
// for bookmark/decoration mutations that don't rerun the pipeline.
func (b *Bridge) emitUnchanged(fileID string, e *entry) {
	visible, matches := e.sess.Counts()
	b.sink.Emit(events.PipelineFinished{FileID: fileID, VisibleCount: visible, MatchCount: matches})
}
