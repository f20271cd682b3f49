package substringengine

import (
	"strings"

	"github.com/coregx/ahocorasick"
)

// MultiLiteralMatcher answers "does content contain any of these literals"
// (optionally requiring a word boundary around the hit) in one linear scan
// instead of N regex passes — the fast path for Level-Filter's
// OR-of-named-levels query (SPEC_FULL.md §3 domain stack).
type MultiLiteralMatcher struct {
	automaton  *ahocorasick.Automaton
	ignoreCase bool
	wholeWord  bool
}

// NewMultiLiteralMatcher builds a matcher over a fixed set of literal
// strings. Case-insensitive matching is applied by lower-casing both the
// dictionary and the scanned content, since the automaton is built from
// exact byte sequences. The automaton itself has no notion of word
// boundaries, so when wholeWord is set, MatchString walks the automaton's
// match positions one at a time and checks each candidate's surrounding
// bytes instead of accepting the first hit.
func NewMultiLiteralMatcher(literals []string, ignoreCase, wholeWord bool) (*MultiLiteralMatcher, error) {
	dict := literals
	if ignoreCase {
		dict = make([]string, len(literals))
		for i, l := range literals {
			dict[i] = strings.ToLower(l)
		}
	}

	builder := ahocorasick.NewBuilder()
	for _, lit := range dict {
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &MultiLiteralMatcher{automaton: auto, ignoreCase: ignoreCase, wholeWord: wholeWord}, nil
}

// MatchString reports whether content contains at least one of the
// literals, at a word boundary if the matcher requires one, satisfying
// the same lineMatcher contract a compiled regex does.
func (m *MultiLiteralMatcher) MatchString(content string) bool {
	hay := content
	if m.ignoreCase {
		hay = strings.ToLower(content)
	}
	haystack := []byte(hay)

	if !m.wholeWord {
		return m.automaton.IsMatch(haystack)
	}

	for at := 0; at <= len(haystack); {
		match := m.automaton.Find(haystack, at)
		if match == nil {
			return false
		}
		if isWordBoundaryMatch(haystack, match.Start, match.End) {
			return true
		}
		at = match.Start + 1
	}
	return false
}

// isWordBoundaryMatch reports whether haystack[start:end] is flanked by a
// non-word byte (or the start/end of haystack) on both sides.
func isWordBoundaryMatch(haystack []byte, start, end int) bool {
	if start > 0 && isWordByte(haystack[start-1]) {
		return false
	}
	if end < len(haystack) && isWordByte(haystack[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
