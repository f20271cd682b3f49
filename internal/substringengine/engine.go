// Package substringengine implements the Substring Engine (SE) contract from
// spec.md §4.2: given a pattern and flags, emit one match per line in the
// form "<1-based-line>:<content>". Two implementations satisfy the same
// Engine interface (Design Notes: "Treat the substring engine as an abstract
// trait with two implementations"): EmbeddedEngine runs in-process against
// coregex; SpawnedEngine shells out to an external grep-compatible binary.
package substringengine

import "context"

// Flags mirrors spec.md §4.2's flag set.
type Flags struct {
	Regex      bool
	IgnoreCase bool
	WholeWord  bool
	Invert     bool

	// Literals, when non-empty, marks this as a pure OR-of-fixed-strings
	// query (e.g. Level-Filter) and takes precedence over Pattern: engines
	// may scan it as one multi-literal pass instead of a regex alternation.
	// WholeWord still applies; Regex is ignored.
	Literals []string
}

// Line is a single matched (or passed-through) row: a 1-based physical line
// number and its content, stripped of the trailing newline.
type Line struct {
	Number  int
	Content string
}

// Stream yields Lines in increasing Number order until exhausted.
type Stream interface {
	// Next returns the next line. ok is false at end of stream. Once Next
	// returns an error, the Stream must not be used again.
	Next() (line Line, ok bool, err error)
	// Close releases any resources (subprocess, open file) held by the
	// stream. Safe to call multiple times.
	Close() error
}

// Engine runs substring/regex scans over a file or over an upstream Stream.
type Engine interface {
	// Open scans path from scratch, matching pattern (or flags.Literals, if
	// set) against each line. Every Engine implementation always numbers
	// lines 1..N internally.
	Open(ctx context.Context, path, pattern string, flags Flags) (Stream, error)

	// Chain scans the content portion of lines already produced by upstream,
	// preserving each line's original Number in the output (spec.md §4.2:
	// "the stage must match against content while preserving the LINE:
	// prefix in output").
	Chain(ctx context.Context, upstream Stream, pattern string, flags Flags) (Stream, error)
}

// sliceStream adapts a pre-materialized slice of Lines to Stream, used in
// tests (the pipeline's match-all stage 0 goes through Engine.Open).
type sliceStream struct {
	lines []Line
	pos   int
}

// NewSliceStream returns a Stream over an already-known sequence of lines.
func NewSliceStream(lines []Line) Stream {
	return &sliceStream{lines: lines}
}

func (s *sliceStream) Next() (Line, bool, error) {
	if s.pos >= len(s.lines) {
		return Line{}, false, nil
	}
	l := s.lines[s.pos]
	s.pos++
	return l, true, nil
}

func (s *sliceStream) Close() error { return nil }
