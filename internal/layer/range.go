package layer

import "github.com/loglayer/loglayer/internal/substringengine"

// RangeClass is the Logic layer kind that keeps only the Start..End-th rows
// (1-based, inclusive) of whatever upstream already produced (spec.md §3:
// "nth-line window after upstream filters").
type RangeClass struct{}

func (RangeClass) TypeID() string     { return "range" }
func (RangeClass) Category() Category { return Processing }

func (RangeClass) Schema() Schema {
	return Schema{
		{Name: "start", Label: "Start", Kind: KindInt, Default: 1, Required: true},
		{Name: "end", Label: "End", Kind: KindInt, Default: 1, Required: true},
	}
}

func (c RangeClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	start, err := r.intField("start")
	if err != nil {
		return nil, err
	}
	end, err := r.intField("end")
	if err != nil {
		return nil, err
	}
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	return &RangeLayer{base: newBase(id, c.TypeID()), start: start, end: end}, nil
}

// RangeLayer is a Logic Processing layer: it never transforms content, only
// counts rows it has seen this run and keeps the Start..End-th.
type RangeLayer struct {
	base
	start, end int
}

func (l *RangeLayer) Category() Category { return Processing }
func (l *RangeLayer) Stage() Stage        { return Logic }
func (l *RangeLayer) Queryable() bool     { return false }

func (l *RangeLayer) CompileNative() (string, substringengine.Flags) {
	panic("range is a Logic layer; CompileNative is not applicable")
}

func (l *RangeLayer) NewRun() LogicRun {
	return &rangeRun{start: l.start, end: l.end}
}

// rangeRun holds the running position counter across one pipeline
// execution — a fresh instance per run, so concurrent syncs never share
// mutable state (Design Note: workers must not mutate shared session
// state they don't own).
type rangeRun struct {
	start, end int
	seen       int
}

func (r *rangeRun) Process(content string) string { return content }

func (r *rangeRun) Filter(content string) bool {
	r.seen++
	return r.seen >= r.start && r.seen <= r.end
}
