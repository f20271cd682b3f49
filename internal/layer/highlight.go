package layer

import "github.com/coregx/coregex"

// HighlightClass is a Rendering layer kind that spans-highlights every
// match of a pattern within post-transform content (spec.md §3).
type HighlightClass struct{}

func (HighlightClass) TypeID() string     { return "highlight" }
func (HighlightClass) Category() Category { return Rendering }

func (HighlightClass) Schema() Schema {
	return Schema{
		{Name: "query", Label: "Query", Kind: KindSearch, Required: true},
		{Name: "color", Label: "Color", Kind: KindColor, Default: "#ffeb3b"},
		{Name: "opacity", Label: "Opacity", Kind: KindRange, Min: 0, Max: 100, Default: 100},
	}
}

func (c HighlightClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	query, err := r.string("query")
	if err != nil {
		return nil, err
	}
	color, err := r.string("color")
	if err != nil {
		return nil, err
	}
	opacity, err := r.intField("opacity")
	if err != nil {
		return nil, err
	}
	re, err := coregex.Compile(query)
	if err != nil {
		return nil, err
	}
	return &HighlightLayer{base: newBase(id, c.TypeID()), re: re, color: color, opacity: float64(opacity) / 100}, nil
}

// HighlightLayer is a Rendering layer: it only contributes highlight spans.
type HighlightLayer struct {
	base
	re      *coregex.Regex
	color   string
	opacity float64
}

func (l *HighlightLayer) Category() Category { return Rendering }

func (l *HighlightLayer) Highlights(content string) []HighlightSpan {
	idxs := l.re.FindAllStringIndex(content, -1)
	if len(idxs) == 0 {
		return nil
	}
	spans := make([]HighlightSpan, len(idxs))
	for i, pair := range idxs {
		spans[i] = HighlightSpan{Start: pair[0], End: pair[1], Color: l.color, Opacity: l.opacity}
	}
	return spans
}

func (l *HighlightLayer) RowStyle(content string) (RowStyle, bool) { return RowStyle{}, false }

// MatchesQuery lets the Stats Worker count rows this layer would highlight.
func (l *HighlightLayer) MatchesQuery(content string) bool { return l.re.MatchString(content) }
