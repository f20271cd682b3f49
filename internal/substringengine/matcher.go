package substringengine

// Matcher is the exported form of lineMatcher: a compiled single-line
// matcher, usable by callers (the Stats Worker) that want to test content
// directly without spinning up a Stream.
type Matcher interface {
	MatchString(s string) bool
}

// CompileMatcher compiles pattern (or flags.Literals) the same way the
// embedded Engine does for its own streams, exposing the same Aho-Corasick
// fast path and regex fallback as a standalone matcher.
func CompileMatcher(pattern string, flags Flags) (Matcher, error) {
	return compileMatcher(pattern, flags)
}
