package layer

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// JSONFieldClass is a supplemental Rendering layer kind (SPEC_FULL.md §5):
// for JSON-formatted log lines, it parses the row, extracts a JSONPath-
// addressed field, and highlights its span within the raw line text.
// Grounded on app/fileloader/json_path.go's jp.ParseString + oj usage.
type JSONFieldClass struct{}

func (JSONFieldClass) TypeID() string     { return "json-field" }
func (JSONFieldClass) Category() Category { return Rendering }

func (JSONFieldClass) Schema() Schema {
	return Schema{
		{Name: "path", Label: "JSONPath", Kind: KindString, Required: true},
		{Name: "color", Label: "Color", Kind: KindColor, Default: "#2196f3"},
	}
}

func (c JSONFieldClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	path, err := r.string("path")
	if err != nil {
		return nil, err
	}
	color, err := r.string("color")
	if err != nil {
		return nil, err
	}
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}
	return &JSONFieldLayer{base: newBase(id, c.TypeID()), expr: expr, color: color}, nil
}

// JSONFieldLayer is a Rendering layer.
type JSONFieldLayer struct {
	base
	expr  jp.Expr
	color string
}

func (l *JSONFieldLayer) Category() Category { return Rendering }

func (l *JSONFieldLayer) Highlights(content string) []HighlightSpan {
	val, err := oj.ParseString(content)
	if err != nil {
		return nil
	}
	results := l.expr.Get(val)
	if len(results) == 0 {
		return nil
	}
	rendered := oj.JSON(results[0])
	start := strings.Index(content, rendered)
	if start < 0 {
		return nil
	}
	return []HighlightSpan{{Start: start, End: start + len(rendered), Color: l.color, Opacity: 1}}
}

func (l *JSONFieldLayer) RowStyle(content string) (RowStyle, bool) { return RowStyle{}, false }

// MatchesQuery lets the Stats Worker count rows where the JSONPath resolves.
func (l *JSONFieldLayer) MatchesQuery(content string) bool {
	val, err := oj.ParseString(content)
	if err != nil {
		return false
	}
	return len(l.expr.Get(val)) > 0
}
