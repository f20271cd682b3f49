package layer

import (
	"strconv"
	"strings"
	"time"

	"github.com/coregx/coregex"

	"github.com/loglayer/loglayer/internal/substringengine"
)

// TimeRangeClass is the Logic layer kind that keeps rows whose extracted
// timestamp falls within [Since, Until]. Grounded on
// app/timestamps/parsing.go's timestamp parsing, with the extraction regex
// and a single time layout user-configurable instead of hard-coded, since a
// Logic layer must see whatever timestamp format the current file actually
// uses; a purely numeric capture is also read as epoch seconds or
// milliseconds. No list of fallback layouts is tried.
type TimeRangeClass struct{}

func (TimeRangeClass) TypeID() string     { return "time-range" }
func (TimeRangeClass) Category() Category { return Processing }

func (TimeRangeClass) Schema() Schema {
	return Schema{
		{Name: "pattern", Label: "Timestamp pattern", Kind: KindString, Required: true},
		{Name: "layout", Label: "Go time layout", Kind: KindString, Default: time.RFC3339},
		{Name: "since", Label: "Since (RFC3339)", Kind: KindString},
		{Name: "until", Label: "Until (RFC3339)", Kind: KindString},
	}
}

func (c TimeRangeClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	pattern, err := r.string("pattern")
	if err != nil {
		return nil, err
	}
	layout, err := r.string("layout")
	if err != nil {
		return nil, err
	}
	if layout == "" {
		layout = time.RFC3339
	}
	sinceStr, err := r.string("since")
	if err != nil {
		return nil, err
	}
	untilStr, err := r.string("until")
	if err != nil {
		return nil, err
	}

	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var since, until time.Time
	var hasSince, hasUntil bool
	if sinceStr != "" {
		if since, err = time.Parse(time.RFC3339, sinceStr); err != nil {
			return nil, err
		}
		hasSince = true
	}
	if untilStr != "" {
		if until, err = time.Parse(time.RFC3339, untilStr); err != nil {
			return nil, err
		}
		hasUntil = true
	}

	return &TimeRangeLayer{
		base:     newBase(id, c.TypeID()),
		re:       re,
		layout:   layout,
		since:    since,
		until:    until,
		hasSince: hasSince,
		hasUntil: hasUntil,
	}, nil
}

// TimeRangeLayer is a Logic Processing layer.
type TimeRangeLayer struct {
	base
	re       *coregex.Regex
	layout   string
	since    time.Time
	until    time.Time
	hasSince bool
	hasUntil bool
}

func (l *TimeRangeLayer) Category() Category { return Processing }
func (l *TimeRangeLayer) Stage() Stage        { return Logic }
func (l *TimeRangeLayer) Queryable() bool     { return true }

func (l *TimeRangeLayer) CompileNative() (string, substringengine.Flags) {
	panic("time-range is a Logic layer; CompileNative is not applicable")
}

func (l *TimeRangeLayer) NewRun() LogicRun {
	return &timeRangeRun{layer: l}
}

// MatchesQuery lets the Stats Worker test content directly, using a
// throwaway run (Time-Range carries no cross-row state to preserve).
func (l *TimeRangeLayer) MatchesQuery(content string) bool {
	return l.NewRun().Filter(content)
}

type timeRangeRun struct {
	layer *TimeRangeLayer
}

func (r *timeRangeRun) Process(content string) string { return content }

func (r *timeRangeRun) Filter(content string) bool {
	ts, ok := r.extract(content)
	if !ok {
		return false
	}
	if r.layer.hasSince && ts.Before(r.layer.since) {
		return false
	}
	if r.layer.hasUntil && ts.After(r.layer.until) {
		return false
	}
	return true
}

func (r *timeRangeRun) extract(content string) (time.Time, bool) {
	m := r.layer.re.FindStringSubmatch(content)
	if len(m) == 0 {
		return time.Time{}, false
	}
	raw := m[0]
	if len(m) > 1 {
		raw = m[1]
	}
	raw = strings.TrimSpace(raw)

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1_000_000_000_000 {
			return time.UnixMilli(n), true
		}
		return time.Unix(n, 0), true
	}

	t, err := time.Parse(r.layer.layout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
