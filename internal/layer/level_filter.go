package layer

import (
	"sync"

	"github.com/loglayer/loglayer/internal/substringengine"
)

// LevelFilterClass is the Native layer kind keeping rows whose content
// contains any of a configured set of level names (spec.md §3: "OR of named
// levels"). Compiles to a single Substring Engine invocation carrying
// flags.Literals, letting the Engine pick a multi-literal scan over N regex
// passes (SPEC_FULL.md §3 domain-stack wiring for coregx/ahocorasick).
type LevelFilterClass struct{}

func (LevelFilterClass) TypeID() string     { return "level-filter" }
func (LevelFilterClass) Category() Category { return Processing }

func (LevelFilterClass) Schema() Schema {
	return Schema{
		{Name: "levels", Label: "Levels", Kind: KindMultiselect, Options: []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}, Required: true},
	}
}

func (c LevelFilterClass) New(id string, config map[string]any) (Layer, error) {
	r := newConfigReader(c.Schema(), config)
	levels, err := r.stringSlice("levels")
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		levels = []string{"ERROR"}
	}
	return &LevelFilterLayer{base: newBase(id, c.TypeID()), levels: levels}, nil
}

// LevelFilterLayer is a Native Processing layer.
type LevelFilterLayer struct {
	base
	levels []string

	matcherOnce sync.Once
	matcher     substringengine.Matcher
}

func (l *LevelFilterLayer) Category() Category { return Processing }
func (l *LevelFilterLayer) Stage() Stage        { return Native }
func (l *LevelFilterLayer) Queryable() bool     { return true }

func (l *LevelFilterLayer) CompileNative() (string, substringengine.Flags) {
	return "", substringengine.Flags{
		WholeWord:  true,
		IgnoreCase: false,
		Literals:   l.levels,
	}
}

func (l *LevelFilterLayer) NewRun() LogicRun {
	panic("level-filter is a Native layer; NewRun is not applicable")
}

// Levels returns the configured level set. The Stats Worker does not use
// it; it counts through MatchesQuery.
func (l *LevelFilterLayer) Levels() []string { return l.levels }

// MatchesQuery lets the Stats Worker test content directly.
func (l *LevelFilterLayer) MatchesQuery(content string) bool {
	l.matcherOnce.Do(func() {
		_, flags := l.CompileNative()
		l.matcher, _ = substringengine.CompileMatcher("", flags)
	})
	if l.matcher == nil {
		return false
	}
	return l.matcher.MatchString(content)
}
