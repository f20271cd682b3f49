// Package stats implements the Stats Worker: per-layer match counts and
// file-position distributions for the layer panel (spec.md §4.6), grounded
// on app/histogram's StageResult bucketing but driven off the Layer
// Registry and Substring Engine instead of a loaded table.
package stats

// Buckets is the fixed distribution resolution (spec.md §4.6: "a coarse,
// fixed-width histogram of where a layer's matches fall across the file").
const Buckets = 20

// Entry is one layer's contribution to a stats snapshot.
type Entry struct {
	// Count is how many rows, among those surviving every enabled
	// Processing layer strictly ahead of this one, match this layer's own
	// query.
	Count int
	// Distribution buckets Count across the file by physical position,
	// each value normalized to [0, 1] against the tallest bucket so the UI
	// can render relative bar heights without knowing the absolute scale.
	Distribution [Buckets]float64
}

// Result maps layer ID to its Entry, covering every layer passed to Run.
type Result map[string]Entry
