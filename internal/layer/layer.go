// Package layer implements the Layer Registry (LR) and the built-in layer
// kinds from spec.md §3/§4.3: Substring-Filter, Level-Filter, Range,
// Time-Range, Substring-Transform, Highlight, Row-Tint, and the
// system-managed Bookmark layer. Grounded on app/plugin/registry.go's
// extension-keyed class map and app/plugin/manifest.go's validation shape,
// generalized from file-type plugins to layer-type plugins.
package layer

import "github.com/loglayer/loglayer/internal/substringengine"

// Category distinguishes layers that can change which rows are visible from
// layers that only decorate already-visible rows (spec.md §3).
type Category int

const (
	Processing Category = iota
	Rendering
)

func (c Category) String() string {
	if c == Rendering {
		return "rendering"
	}
	return "processing"
}

// Stage applies only to Processing layers: Native ones delegate to the
// Substring Engine, Logic ones run as Go code (spec.md GLOSSARY).
type Stage int

const (
	Native Stage = iota
	Logic
)

func (s Stage) String() string {
	if s == Logic {
		return "logic"
	}
	return "native"
}

// Layer is the common interface every layer kind (built-in or plugin)
// implements, mirroring app/plugin's Class/instance split but generalized
// per the "explicit typed config struct, no reflection" Design Note.
type Layer interface {
	ID() string
	TypeID() string
	Enabled() bool
	SetEnabled(bool)
	Category() Category
}

// HighlightSpan is a byte-range decoration measured on post-transform
// content (spec.md §3).
type HighlightSpan struct {
	Start    int
	End      int
	Color    string
	Opacity  float64
	IsSearch bool
}

// RowStyle is a full-line background decoration.
type RowStyle struct {
	Color   string
	Opacity float64
}

// ProcessingLayer is the Processing half of Layer. Native layers expose a
// compiled SE invocation; Logic layers hand back a fresh LogicRun per
// pipeline execution so stateful layers (Range's position counter,
// Time-Range's compiled matcher) don't leak state across runs.
type ProcessingLayer interface {
	Layer
	Stage() Stage

	// CompileNative returns the pattern and flags this layer's Native stage
	// should pass to the Substring Engine. Only valid when Stage() == Native.
	CompileNative() (pattern string, flags substringengine.Flags)

	// NewRun returns a fresh, single-pipeline-run evaluator. Only valid when
	// Stage() == Logic.
	NewRun() LogicRun

	// Queryable reports whether this layer has a form the Stats Worker can
	// count against (spec.md §4.6); a false layer contributes a zero entry.
	Queryable() bool
}

// LogicRun is the per-run state of a Logic layer: spec.md §4.4 step 4a
// requires Process to cascade before Filter is evaluated, and both must see
// a single, consistent piece of state across a run (e.g. Range's running
// counter).
type LogicRun interface {
	// Process transforms content and returns the (possibly unchanged)
	// result that downstream layers and the row's visible content become.
	Process(content string) string
	// Filter is evaluated once per row, after every Logic layer's Process
	// has cascaded, against the content this layer's own Process produced.
	Filter(content string) bool
}

// RenderingLayer is the Rendering half of Layer: it never affects visibility
// or content (spec.md §3), only decoration.
type RenderingLayer interface {
	Layer
	// Highlights returns highlight spans for content (post-transform,
	// pre-search-highlight).
	Highlights(content string) []HighlightSpan
	// RowStyle returns a full-line style, if this layer assigns one for
	// content.
	RowStyle(content string) (RowStyle, bool)
}

// StatsQueryable is implemented by any layer kind (Processing or Rendering)
// that the Stats Worker can count matches for. Layers with no queryable
// form (Range, Substring-Transform, Bookmark) simply don't implement it —
// the worker treats that as count=0, distribution=[] (spec.md §4.6).
type StatsQueryable interface {
	Layer
	MatchesQuery(content string) bool
}

// base is embedded by every built-in layer to provide the common Layer
// fields without each concrete type repeating the bookkeeping.
type base struct {
	id      string
	typeID  string
	enabled bool
}

func newBase(id, typeID string) base {
	return base{id: id, typeID: typeID, enabled: true}
}

func (b *base) ID() string        { return b.id }
func (b *base) TypeID() string    { return b.typeID }
func (b *base) Enabled() bool     { return b.enabled }
func (b *base) SetEnabled(v bool) { b.enabled = v }
