// Package pipeline implements the Pipeline Worker (PW) from spec.md §4.4:
// given a file, an ordered list of active Processing layers, and an
// optional search configuration, it produces the visible-row mapping and
// the search-match ranking. Grounded on app/query/pipeline.go's
// stage-sequencing and cancellation-checkpoint idiom.
package pipeline

// MaxLineBytes is the truncation threshold from spec.md §4.4's edge cases
// and SPEC_FULL.md §6's Open Question decision: lines longer than this are
// truncated for display, never for matching.
const MaxLineBytes = 10 * 1024

// SearchConfig mirrors spec.md §3's Search Configuration.
type SearchConfig struct {
	Query         string
	IsRegex       bool
	CaseSensitive bool
	WholeWord     bool
}

// Result is the Pipeline Worker's output: visible rows and search-match
// ranks, per spec.md §4.4.
type Result struct {
	// VisibleIndices is nil iff no Processing layer is active (unfiltered
	// view); otherwise it is the strictly increasing sequence of physical
	// indices that survived every layer.
	VisibleIndices []int
	// SearchMatches holds physical indices when VisibleIndices is nil
	// (search-only mode), or virtual indices (ranks within the filtered
	// view) when VisibleIndices is set (spec.md §4.5).
	SearchMatches []int
}
