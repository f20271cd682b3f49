package layer

import (
	"sync"

	"github.com/loglayer/loglayer/internal/substringengine"
)

// SubstringFilterClass is the Native layer kind that keeps or drops a row
// based on a plain substring/regex match, grounded on app/query/filter_expr.go's
// literal query concept generalized to line-oriented content.
type SubstringFilterClass struct{}

func (SubstringFilterClass) TypeID() string   { return "substring-filter" }
func (SubstringFilterClass) Category() Category { return Processing }

func (SubstringFilterClass) Schema() Schema {
	return Schema{
		{Name: "query", Label: "Query", Kind: KindSearch, Required: true},
	}
}

func (c SubstringFilterClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	query, err := r.string("query")
	if err != nil {
		return nil, err
	}
	regex, err := boolFieldFromConfig(config, "regex")
	if err != nil {
		return nil, err
	}
	icase, err := boolFieldFromConfig(config, "caseSensitive")
	if err != nil {
		return nil, err
	}
	word, err := boolFieldFromConfig(config, "wholeWord")
	if err != nil {
		return nil, err
	}
	invert, err := boolFieldFromConfig(config, "invert")
	if err != nil {
		return nil, err
	}
	return &SubstringFilterLayer{
		base:  newBase(id, c.TypeID()),
		query: query,
		flags: substringengine.Flags{
			Regex:      regex,
			IgnoreCase: !icase,
			WholeWord:  word,
			Invert:     invert,
		},
	}, nil
}

// boolFieldFromConfig reads an optional bool out of a raw config map
// without requiring it to be declared in the class's exported Schema (the
// "search" field kind bundles regex/caseSensitive/wholeWord sub-flags under
// one UI control, per spec.md §4.3).
func boolFieldFromConfig(config map[string]any, name string) (bool, error) {
	v, ok := config[name]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, nil
	}
	return b, nil
}

// SubstringFilterLayer is a Native Processing layer: it never runs Go code
// against rows itself, it compiles to a Substring Engine invocation.
type SubstringFilterLayer struct {
	base
	query string
	flags substringengine.Flags

	matcherOnce sync.Once
	matcher     substringengine.Matcher
}

func (l *SubstringFilterLayer) Category() Category { return Processing }
func (l *SubstringFilterLayer) Stage() Stage        { return Native }
func (l *SubstringFilterLayer) Queryable() bool     { return true }

func (l *SubstringFilterLayer) CompileNative() (string, substringengine.Flags) {
	return l.query, l.flags
}

// MatchesQuery lets the Stats Worker test content directly, without
// spinning up a Substring Engine stream for a single-line check.
func (l *SubstringFilterLayer) MatchesQuery(content string) bool {
	l.matcherOnce.Do(func() {
		l.matcher, _ = substringengine.CompileMatcher(l.query, l.flags)
	})
	if l.matcher == nil {
		return false
	}
	return l.matcher.MatchString(content) != l.flags.Invert
}

func (l *SubstringFilterLayer) NewRun() LogicRun {
	panic("substring-filter is a Native layer; NewRun is not applicable")
}
