package layer

import (
	"github.com/coregx/coregex"

	"github.com/loglayer/loglayer/internal/substringengine"
)

// SubstringTransformClass is the Logic layer kind performing a regex
// substitution over content; it never filters (spec.md §3: "Substring-
// Transform (Logic; regex substitution)").
type SubstringTransformClass struct{}

func (SubstringTransformClass) TypeID() string     { return "substring-transform" }
func (SubstringTransformClass) Category() Category { return Processing }

func (SubstringTransformClass) Schema() Schema {
	return Schema{
		{Name: "find", Label: "Find (regex)", Kind: KindString, Required: true},
		{Name: "replace", Label: "Replace", Kind: KindString},
	}
}

func (c SubstringTransformClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	find, err := r.string("find")
	if err != nil {
		return nil, err
	}
	replace, err := r.string("replace")
	if err != nil {
		return nil, err
	}
	re, err := coregex.Compile(find)
	if err != nil {
		return nil, err
	}
	return &SubstringTransformLayer{base: newBase(id, c.TypeID()), re: re, replace: replace}, nil
}

// SubstringTransformLayer is a Logic Processing layer.
type SubstringTransformLayer struct {
	base
	re      *coregex.Regex
	replace string
}

func (l *SubstringTransformLayer) Category() Category { return Processing }
func (l *SubstringTransformLayer) Stage() Stage        { return Logic }
func (l *SubstringTransformLayer) Queryable() bool     { return false }

func (l *SubstringTransformLayer) CompileNative() (string, substringengine.Flags) {
	panic("substring-transform is a Logic layer; CompileNative is not applicable")
}

func (l *SubstringTransformLayer) NewRun() LogicRun {
	return &substringTransformRun{re: l.re, replace: l.replace}
}

type substringTransformRun struct {
	re      *coregex.Regex
	replace string
}

func (r *substringTransformRun) Process(content string) string {
	return r.re.ReplaceAllString(content, r.replace)
}

func (r *substringTransformRun) Filter(content string) bool { return true }
