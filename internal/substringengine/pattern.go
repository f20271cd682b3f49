package substringengine

import (
	"regexp"
	"strings"
)

// compilePattern turns a user-supplied pattern plus Flags into the final
// regex source text, composing whole-word anchors and the case-insensitive
// inline flag the same way a stdlib regexp user would, per SPEC_FULL.md §4.2.
func compilePattern(pattern string, flags Flags) string {
	body := pattern
	if !flags.Regex {
		body = regexp.QuoteMeta(pattern)
	}
	if flags.WholeWord {
		body = `\b(?:` + body + `)\b`
	}
	if flags.IgnoreCase {
		body = `(?i)` + body
	}
	return body
}

// MustCompileFixed escapes a literal (never a user regex) into regex
// source; LiteralAlternation uses it for each of its literals.
func MustCompileFixed(literal string) string {
	return regexp.QuoteMeta(literal)
}

// LiteralAlternation turns a set of fixed strings into a single regex
// alternation, each escaped; the alternation is whole-word wrapped only when
// flags.WholeWord is set, and case-folded only when flags.IgnoreCase is
// set. Used by SpawnedEngine,
// which shells out to an external grep-compatible binary and has no access
// to the in-process Aho-Corasick automaton EmbeddedEngine uses instead.
func LiteralAlternation(literals []string, flags Flags) string {
	parts := make([]string, len(literals))
	for i, lit := range literals {
		parts[i] = MustCompileFixed(lit)
	}
	body := strings.Join(parts, "|")
	if flags.WholeWord {
		body = `\b(?:` + body + `)\b`
	}
	if flags.IgnoreCase {
		body = `(?i)` + body
	}
	return body
}
