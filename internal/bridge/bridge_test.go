package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loglayer/loglayer/internal/events"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/search"
	"github.com/loglayer/loglayer/internal/substringengine"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func newTestBridge() (*Bridge, *events.RecordingSink) {
	sink := &events.RecordingSink{}
	b := New(layer.NewRegistry(), substringengine.NewEmbeddedEngine(), sink, nil)
	return b, sink
}

func waitForPipelineFinished(t *testing.T, sink *events.RecordingSink, fileID string) events.PipelineFinished {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range sink.Events() {
			if pf, ok := ev.(events.PipelineFinished); ok && pf.FileID == fileID {
				return pf
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for pipeline_finished(%s)", fileID)
	return events.PipelineFinished{}
}

// Scenario 1 from spec.md §8: filter then search.
func TestBridgeFilterThenSearch(t *testing.T) {
	content := "ERROR Database Timeout\nERROR Database\nINFO Database\nERROR Timeout\nERROR Other\n"
	path := writeTestFile(t, content)

	b, sink := newTestBridge()
	if err := b.OpenFile(context.Background(), "f1", path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer b.CloseFile("f1")

	specs := []LayerSpec{
		{ID: "l1", TypeID: "substring-filter", Enabled: true, Config: map[string]any{"query": "ERROR"}},
	}
	searchCfg := &pipeline.SearchConfig{Query: "Timeout"}
	if err := b.SyncLayers("f1", specs, searchCfg); err != nil {
		t.Fatalf("SyncLayers: %v", err)
	}

	pf := waitForPipelineFinished(t, sink, "f1")
	if pf.VisibleCount != 4 {
		t.Fatalf("VisibleCount = %d, want 4", pf.VisibleCount)
	}
	if pf.MatchCount != 2 {
		t.Fatalf("MatchCount = %d, want 2", pf.MatchCount)
	}

	rows := b.ReadProcessedLines("f1", 0, 4)
	if len(rows) != 4 {
		t.Fatalf("ReadProcessedLines returned %d rows, want 4", len(rows))
	}

	if got := b.GetSearchMatchIndex("f1", 0); got != 0 {
		t.Fatalf("GetSearchMatchIndex(0) = %d, want 0 (virtual row of physical 0)", got)
	}
	if got := b.GetSearchMatchIndex("f1", 1); got != 2 {
		t.Fatalf("GetSearchMatchIndex(1) = %d, want 2 (virtual row of physical 3)", got)
	}
}

// Scenario 6 from spec.md §8: cancellation cleanliness under rapid resync.
func TestBridgeResyncRetiresStaleWorker(t *testing.T) {
	var lines string
	for i := 0; i < 5000; i++ {
		lines += "INFO line\nERROR line\n"
	}
	path := writeTestFile(t, lines)

	b, sink := newTestBridge()
	if err := b.OpenFile(context.Background(), "f1", path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer b.CloseFile("f1")

	first := []LayerSpec{{ID: "l1", TypeID: "substring-filter", Enabled: true, Config: map[string]any{"query": "INFO"}}}
	second := []LayerSpec{{ID: "l1", TypeID: "substring-filter", Enabled: true, Config: map[string]any{"query": "ERROR"}}}

	if err := b.SyncLayers("f1", first, nil); err != nil {
		t.Fatalf("SyncLayers(first): %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := b.SyncLayers("f1", second, nil); err != nil {
		t.Fatalf("SyncLayers(second): %v", err)
	}

	pf := waitForPipelineFinished(t, sink, "f1")
	if pf.VisibleCount != 5000 {
		t.Fatalf("VisibleCount = %d, want 5000 (second call's ERROR rows)", pf.VisibleCount)
	}

	time.Sleep(20 * time.Millisecond)
	var finishedCount int
	for _, ev := range sink.Events() {
		switch e := ev.(type) {
		case events.PipelineFinished:
			finishedCount++
		case events.OperationError:
			t.Fatalf("unexpected operation_error: %+v", e)
		}
	}
	if finishedCount != 1 {
		t.Fatalf("pipeline_finished emitted %d times, want exactly 1", finishedCount)
	}
}

func TestBridgeBookmarkRoundTrip(t *testing.T) {
	path := writeTestFile(t, "a\nb\nc\n")
	b, sink := newTestBridge()
	if err := b.OpenFile(context.Background(), "f1", path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer b.CloseFile("f1")

	b.ToggleBookmark("f1", 1)
	b.ToggleBookmark("f1", 1)
	if marks := b.GetBookmarks("f1"); len(marks) != 0 {
		t.Fatalf("toggling twice left marks = %v, want none", marks)
	}

	var sawPipelineFinished bool
	for _, ev := range sink.Events() {
		if _, ok := ev.(events.PipelineFinished); ok {
			sawPipelineFinished = true
		}
	}
	if !sawPipelineFinished {
		t.Fatalf("expected at least one pipeline_finished from bookmark toggles")
	}
}

func TestBridgeSessionNotFoundReturnsDefaults(t *testing.T) {
	b, _ := newTestBridge()
	if rows := b.ReadProcessedLines("missing", 0, 10); rows != nil {
		t.Fatalf("ReadProcessedLines on missing session = %v, want nil", rows)
	}
	if idx := b.GetSearchMatchIndex("missing", 0); idx != -1 {
		t.Fatalf("GetSearchMatchIndex on missing session = %d, want -1", idx)
	}
	if _, ok := b.GetNearestSearchRank("missing", 0, search.Next); ok {
		t.Fatalf("GetNearestSearchRank on missing session ok = true, want false")
	}
}

func TestBridgeOpenDirectoryConcatenates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.log"), []byte("a1\na2\n"), 0o644); err != nil {
		t.Fatalf("write a.log: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.log"), []byte("b1\n"), 0o644); err != nil {
		t.Fatalf("write b.log: %v", err)
	}

	b, _ := newTestBridge()
	if err := b.OpenFile(context.Background(), "dir1", dir); err != nil {
		t.Fatalf("OpenFile(dir): %v", err)
	}
	defer b.CloseFile("dir1")

	rows := b.ReadProcessedLines("dir1", 0, 3)
	if len(rows) != 3 {
		t.Fatalf("ReadProcessedLines returned %d rows, want 3", len(rows))
	}
	if rows[0].SourceFile != "a.log" || rows[2].SourceFile != "b.log" {
		t.Fatalf("SourceFile tags = %q, %q, %q; want a.log, a.log, b.log", rows[0].SourceFile, rows[1].SourceFile, rows[2].SourceFile)
	}
}
