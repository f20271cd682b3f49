package layer

import "github.com/coregx/coregex"

// RowTintClass is a Rendering layer kind applying a full-line background
// color to rows whose content matches a pattern (spec.md §3).
type RowTintClass struct{}

func (RowTintClass) TypeID() string     { return "row-tint" }
func (RowTintClass) Category() Category { return Rendering }

func (RowTintClass) Schema() Schema {
	return Schema{
		{Name: "query", Label: "Query", Kind: KindSearch, Required: true},
		{Name: "color", Label: "Color", Kind: KindColor, Default: "#f44336"},
		{Name: "opacity", Label: "Opacity", Kind: KindRange, Min: 0, Max: 100, Default: 20},
	}
}

func (c RowTintClass) New(id string, config map[string]any) (Layer, error) {
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
	return &RowTintLayer{base: newBase(id, c.TypeID()), re: re, color: color, opacity: float64(opacity) / 100}, nil
}

// RowTintLayer is a Rendering layer: it only contributes a row style.
type RowTintLayer struct {
	base
	re      *coregex.Regex
	color   string
	opacity float64
}

func (l *RowTintLayer) Category() Category { return Rendering }

func (l *RowTintLayer) Highlights(content string) []HighlightSpan { return nil }

func (l *RowTintLayer) RowStyle(content string) (RowStyle, bool) {
	if !l.re.MatchString(content) {
		return RowStyle{}, false
	}
	return RowStyle{Color: l.color, Opacity: l.opacity}, true
}

// MatchesQuery lets the Stats Worker count rows this layer would tint.
func (l *RowTintLayer) MatchesQuery(content string) bool { return l.re.MatchString(content) }
