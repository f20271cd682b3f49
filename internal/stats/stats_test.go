package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/substringengine"
)

func writeFile(t *testing.T, content string) (string, int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	lines := 0
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}
	return path, lines
}

func mustLayer(t *testing.T, c layer.Class, id string, config map[string]any) layer.Layer {
	t.Helper()
	l, err := c.New(id, config)
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	return l
}

func TestRunCountsAgainstOwnQuery(t *testing.T) {
	path, n := writeFile(t, "ERROR a\nINFO b\nERROR c\nWARN d\n")
	errLayer := mustLayer(t, layer.SubstringFilterClass{}, "err", map[string]any{"query": "ERROR"})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, n, []layer.Layer{errLayer})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entry := res["err"]
	if entry.Count != 2 {
		t.Fatalf("Count = %d, want 2", entry.Count)
	}
}

func TestRunCumulativePrefixNarrowsLaterLayers(t *testing.T) {
	// A level filter ahead of a substring-filter narrows the rows the
	// second layer's own count is measured against.
	path, n := writeFile(t, "ERROR database down\nINFO database up\nERROR network down\nWARN database slow\n")
	level := mustLayer(t, layer.LevelFilterClass{}, "lvl", map[string]any{"levels": []any{"ERROR"}})
	dbFilter := mustLayer(t, layer.SubstringFilterClass{}, "db", map[string]any{"query": "database"})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, n, []layer.Layer{level, dbFilter})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// level's own prefix is empty (nothing precedes it): counts over all 4
	// rows, 2 are ERROR.
	if res["lvl"].Count != 2 {
		t.Fatalf("lvl Count = %d, want 2", res["lvl"].Count)
	}
	// db's prefix is [level]: only the two ERROR rows survive, and only one
	// of those contains "database".
	if res["db"].Count != 1 {
		t.Fatalf("db Count = %d, want 1", res["db"].Count)
	}
}

func TestRunNonQueryableLayerContributesZeroEntry(t *testing.T) {
	path, n := writeFile(t, "a\nb\nc\nd\ne\n")
	rangeLayer := mustLayer(t, layer.RangeClass{}, "r1", map[string]any{"start": 1, "end": 3})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, n, []layer.Layer{rangeLayer})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entry := res["r1"]
	if entry.Count != 0 {
		t.Fatalf("Count = %d, want 0", entry.Count)
	}
	for i, d := range entry.Distribution {
		if d != 0 {
			t.Fatalf("Distribution[%d] = %v, want 0", i, d)
		}
	}
}

func TestRunDisabledLayerContributesZeroEntry(t *testing.T) {
	path, n := writeFile(t, "ERROR a\nERROR b\nERROR c\n")
	errLayer := mustLayer(t, layer.SubstringFilterClass{}, "err", map[string]any{"query": "ERROR"})
	errLayer.SetEnabled(false)

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, n, []layer.Layer{errLayer})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res["err"].Count != 0 {
		t.Fatalf("Count = %d, want 0", res["err"].Count)
	}
}

func TestRunRenderingLayerNeverNarrowsLaterPrefix(t *testing.T) {
	path, n := writeFile(t, "ERROR a\nINFO b\nERROR c\n")
	highlight := mustLayer(t, layer.HighlightClass{}, "hl", map[string]any{"query": "ERROR"})
	filter := mustLayer(t, layer.SubstringFilterClass{}, "f1", map[string]any{"query": "a"})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, n, []layer.Layer{highlight, filter})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// filter's prefix excludes the Rendering highlight layer entirely, so
	// it still sees all 3 rows and finds the one containing "a".
	if res["f1"].Count != 1 {
		t.Fatalf("f1 Count = %d, want 1", res["f1"].Count)
	}
}

func TestRunDistributionNormalizedToPeak(t *testing.T) {
	lines := ""
	for i := 0; i < 40; i++ {
		if i < 20 {
			lines += "ERROR x\n"
		} else {
			lines += "INFO x\n"
		}
	}
	path, n := writeFile(t, lines)
	errLayer := mustLayer(t, layer.SubstringFilterClass{}, "err", map[string]any{"query": "ERROR"})

	res, err := Run(context.Background(), substringengine.NewEmbeddedEngine(), path, n, []layer.Layer{errLayer})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entry := res["err"]
	if entry.Count != 20 {
		t.Fatalf("Count = %d, want 20", entry.Count)
	}
	// First half of the buckets should be at peak (1.0), second half empty.
	for i := 0; i < Buckets/2; i++ {
		if entry.Distribution[i] != 1 {
			t.Fatalf("Distribution[%d] = %v, want 1", i, entry.Distribution[i])
		}
	}
	for i := Buckets / 2; i < Buckets; i++ {
		if entry.Distribution[i] != 0 {
			t.Fatalf("Distribution[%d] = %v, want 0", i, entry.Distribution[i])
		}
	}
}

func TestRunCancellationReturnsError(t *testing.T) {
	var b []byte
	for i := 0; i < 200_000; i++ {
		b = append(b, []byte("a line of plain text\n")...)
	}
	path := filepath.Join(t.TempDir(), "big.log")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	filter := mustLayer(t, layer.SubstringFilterClass{}, "f1", map[string]any{"query": "plain"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, substringengine.NewEmbeddedEngine(), path, 200_000, []layer.Layer{filter})
	if err == nil {
		t.Fatalf("expected error for a cancelled context")
	}
}
