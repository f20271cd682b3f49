// Package logx is the engine's logging seam: a one-method Logger interface,
// so the bridge, cache, and pipeline/stats workers can all be handed the
// same kind of thing instead of each picking its own logging convention.
package logx

import (
	"fmt"
	"log"
)

// Logger receives a level tag ("debug", "info", "warning", "error") and a
// pre-formatted message.
type Logger interface {
	Log(level, message string)
}

// StdLogger wraps the standard library's log package, printing
// "[LEVEL] message" with bracketed call-site tags (e.g. "[CACHE_HIT] ...",
// "[PIPELINE_ERROR] ...") — the level itself is just another bracketed
// prefix here.
type StdLogger struct{}

func (StdLogger) Log(level, message string) {
	log.Printf("[%s] %s", level, message)
}

// NopLogger discards everything. Default for tests and for callers that
// don't want log output.
type NopLogger struct{}

func (NopLogger) Log(string, string) {}

// Tagf builds a bracket-tagged message, e.g. Tagf("PIPELINE_ERROR", "file
// %s: %v", id, err), without repeating the Sprintf wrapping at every call
// site.
func Tagf(tag, format string, args ...any) string {
	return fmt.Sprintf("[%s] %s", tag, fmt.Sprintf(format, args...))
}
