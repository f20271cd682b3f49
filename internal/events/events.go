// Package events defines the engine's event surface (spec.md §6) and the
// Sink it is delivered through. Grounded on app.go's/app_tabs.go's
// `runtime.EventsEmit(ctx, name, payload)` fan-out, generalized per
// SPEC_FULL.md §4.7's design note ("explicit event-sink handle passed to
// the bridge at construction, rather than a module-level global") into an
// injected interface instead of a captured loop reference.
package events

import (
	"sync"

	"github.com/loglayer/loglayer/internal/stats"
)

// Event is implemented by every event payload type. Name returns the wire
// name spec.md §6 assigns it, so a Sink can serialize without a type
// switch per concrete struct.
type Event interface {
	Name() string
}

// FileLoaded reports a completed Line Index build.
type FileLoaded struct {
	FileID    string
	Name      string
	Size      int64
	LineCount int
}

func (FileLoaded) Name() string { return "file_loaded" }

// PipelineFinished reports a completed (or decoration-only) Pipeline
// Worker run.
type PipelineFinished struct {
	FileID       string
	VisibleCount int
	MatchCount   int
}

func (PipelineFinished) Name() string { return "pipeline_finished" }

// StatsFinished reports a completed Stats Worker run.
type StatsFinished struct {
	FileID string
	Stats  stats.Result
}

func (StatsFinished) Name() string { return "stats_finished" }

// OperationStarted marks the beginning of a long-running operation (an
// index build or a pipeline/stats run).
type OperationStarted struct {
	FileID string
	Op     string
}

func (OperationStarted) Name() string { return "operation_started" }

// OperationProgress reports fractional progress (0-100) of an operation
// already announced by OperationStarted.
type OperationProgress struct {
	FileID  string
	Op      string
	Percent float64
}

func (OperationProgress) Name() string { return "operation_progress" }

// OperationError reports an operation's failure; per spec.md §7 this never
// accompanies a partial success — the prior visible state is left intact.
type OperationError struct {
	FileID  string
	Op      string
	Message string
}

func (OperationError) Name() string { return "operation_error" }

// OperationStatusChanged reports a coarse status transition outside the
// started/progress/finished/error sequence (e.g. a session entering a
// degraded "mmap closed" state).
type OperationStatusChanged struct {
	FileID  string
	Status  string
	Percent float64
}

func (OperationStatusChanged) Name() string { return "operation_status_changed" }

// Sink delivers events to the UI. Implementations must preserve delivery
// order per file_id (spec.md §5: "delivery order per file_id must be
// preserved") — the bridge is responsible for calling Emit in an order
// that already satisfies the per-session
// operation_started -> (progress*) -> pipeline_finished|operation_error
// sequence; a Sink must not reorder what it's given. (wsserver.Hub drops
// events for a client whose outbound queue is full rather than block Emit.)
type Sink interface {
	Emit(event Event)
}

// NopSink discards every event. Useful as a bridge default before a real
// transport is attached, and in tests that don't assert on events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// RecordingSink appends every event it receives, guarded by a mutex since
// the bridge may emit from more than one worker goroutine. Used by the
// bridge's own tests to assert on delivery order without standing up a
// WebSocket connection.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *RecordingSink) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a snapshot of every event recorded so far, in emission
// order.
func (s *RecordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
