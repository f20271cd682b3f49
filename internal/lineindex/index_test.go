package lineindex

import (
	"context"
	"reflect"
	"testing"
)

func TestBuildEmpty(t *testing.T) {
	ix, err := Build(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.LineCount() != 0 {
		t.Fatalf("LineCount = %d, want 0", ix.LineCount())
	}
}

func TestBuildBasic(t *testing.T) {
	data := []byte("foo\nbar\nbaz\n")
	ix, err := Build(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []int64{0, 4, 8}
	if !reflect.DeepEqual(ix.Offsets, want) {
		t.Fatalf("Offsets = %v, want %v", ix.Offsets, want)
	}
	if ix.LineCount() != 3 {
		t.Fatalf("LineCount = %d, want 3", ix.LineCount())
	}

	start, end := ix.Span(1)
	if string(data[start:end]) != "bar\n" {
		t.Fatalf("Span(1) = %q, want %q", data[start:end], "bar\n")
	}
}

func TestBuildNoTrailingNewline(t *testing.T) {
	data := []byte("foo\nbar")
	ix, err := Build(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []int64{0, 4}
	if !reflect.DeepEqual(ix.Offsets, want) {
		t.Fatalf("Offsets = %v, want %v", ix.Offsets, want)
	}
	start, end := ix.Span(1)
	if string(data[start:end]) != "bar" {
		t.Fatalf("Span(1) = %q, want %q", data[start:end], "bar")
	}
}

func TestBuildTrailingNewlineDropped(t *testing.T) {
	// "a\nb\n" has a final newline exactly at EOF; no empty trailing line.
	data := []byte("a\nb\n")
	ix, err := Build(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.LineCount() != 2 {
		t.Fatalf("LineCount = %d, want 2", ix.LineCount())
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := make([]byte, 1<<20)
	for i := range data {
		if i%7 == 0 {
			data[i] = '\n'
		}
	}
	_, err := Build(ctx, data, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
