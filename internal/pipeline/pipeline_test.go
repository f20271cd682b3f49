package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/substringengine"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func mustLayer(t *testing.T, c layer.Class, id string, config map[string]any) layer.ProcessingLayer {
	t.Helper()
	l, err := c.New(id, config)
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	return l.(layer.ProcessingLayer)
}

// Scenario 1: filter then search.
func TestRunFilterThenSearch(t *testing.T) {
	path := writeFile(t, "ERROR Database Timeout\nERROR Database\nINFO Database\nERROR Timeout\nERROR Other\n")
	filter := mustLayer(t, layer.SubstringFilterClass{}, "f1", map[string]any{"query": "ERROR"})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path,
		[]layer.ProcessingLayer{filter}, &SearchConfig{Query: "Timeout"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.VisibleIndices, []int{0, 1, 3, 4}) {
		t.Fatalf("visible = %v", res.VisibleIndices)
	}
	if !reflect.DeepEqual(res.SearchMatches, []int{0, 2}) {
		t.Fatalf("matches = %v", res.SearchMatches)
	}
}

// Scenario 2: search only, unfiltered.
func TestRunSearchOnlyUnfiltered(t *testing.T) {
	path := writeFile(t, "ERROR Database Timeout\nERROR Database\nINFO Database\nERROR Timeout\nERROR Other\n")

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path,
		nil, &SearchConfig{Query: "Database"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.VisibleIndices != nil {
		t.Fatalf("expected nil visible indices, got %v", res.VisibleIndices)
	}
	if !reflect.DeepEqual(res.SearchMatches, []int{0, 1, 2}) {
		t.Fatalf("matches = %v", res.SearchMatches)
	}
}

// Scenario 3: transform + filter.
func TestRunTransformThenFilter(t *testing.T) {
	path := writeFile(t, "foo 12\nbar 34\nfoo baz\n")
	transform := mustLayer(t, layer.SubstringTransformClass{}, "t1", map[string]any{"find": `\d+`, "replace": "N"})
	filterLayer := mustLayer(t, layer.SubstringFilterClass{}, "f1", map[string]any{"query": "foo N"})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path,
		[]layer.ProcessingLayer{transform, filterLayer}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.VisibleIndices, []int{0}) {
		t.Fatalf("visible = %v", res.VisibleIndices)
	}
}

// Scenario 4: level OR.
func TestRunLevelOR(t *testing.T) {
	path := writeFile(t, "INFO x\nWARN y\nERROR z\nDEBUG q\n")
	level := mustLayer(t, layer.LevelFilterClass{}, "lvl", map[string]any{"levels": []any{"ERROR", "WARN"}})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path,
		[]layer.ProcessingLayer{level}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.VisibleIndices, []int{1, 2}) {
		t.Fatalf("visible = %v", res.VisibleIndices)
	}
}

// Scenario 5: range after filter.
func TestRunRangeAfterFilter(t *testing.T) {
	path := writeFile(t, "ERROR Database Timeout\nERROR Database\nINFO Database\nERROR Timeout\nERROR Other\n")
	filterLayer := mustLayer(t, layer.SubstringFilterClass{}, "f1", map[string]any{"query": "ERROR"})
	rangeLayer := mustLayer(t, layer.RangeClass{}, "r1", map[string]any{"start": 2, "end": 3})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path,
		[]layer.ProcessingLayer{filterLayer, rangeLayer}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.VisibleIndices, []int{1, 3}) {
		t.Fatalf("visible = %v", res.VisibleIndices)
	}
}

// Scenario 6 (cancellation cleanliness): a cancelled context yields an
// error and no result, never a partial visible table.
func TestRunCancellationYieldsErrorNoPartialResult(t *testing.T) {
	var b []byte
	for i := 0; i < 200_000; i++ {
		b = append(b, []byte("a line of plain text for scanning\n")...)
	}
	path := filepath.Join(t.TempDir(), "big.log")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	filterLayer := mustLayer(t, layer.SubstringFilterClass{}, "f1", map[string]any{"query": "plain"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, substringengine.NewEmbeddedEngine(), path, []layer.ProcessingLayer{filterLayer}, nil)
	if err == nil {
		t.Fatalf("expected error for a cancelled context, got result %v", res)
	}
}

func TestRunNoLayersNoSearchReturnsUnfiltered(t *testing.T) {
	path := writeFile(t, "a\nb\nc\n")
	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.VisibleIndices != nil || res.SearchMatches != nil {
		t.Fatalf("expected a fully empty Result, got %+v", res)
	}
}

func TestRunSearchHitTimeoutIsTreatedAsEmpty(t *testing.T) {
	path := writeFile(t, "a\nb\nc\n")
	time.Sleep(time.Millisecond) // ensure the 1ns budget below is already spent

	hits, err := computeSearchHits(context.Background(), substringengine.NewEmbeddedEngine(), path, &SearchConfig{Query: "a"}, time.Nanosecond)
	if err != nil {
		t.Fatalf("computeSearchHits: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty hits on timeout, got %v", hits)
	}
}
