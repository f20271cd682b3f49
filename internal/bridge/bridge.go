// Package bridge implements the Bridge (B) from spec.md §4.7: the session
// registry, worker supervision (pipeline/stats start + zombie-list
// retirement), and event emission that the out-of-scope desktop shell and
// frontend talk to through the request surface in spec.md §6.
//
// Grounded on app.go's App struct — tabsMu sync.RWMutex guarding a
// map[string]*FileTab, and a per-operation context.CancelFunc guarded by
// its own mutex (locateCancelFunc/locateCancelMu) — generalized from "one
// cancellable locate-files operation" to "one cancellable worker per
// (session, role), with the retired worker moved to a zombie list instead
// of just overwritten" (spec.md §4.7/§5).
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/loglayer/loglayer/internal/events"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/lineindex"
	"github.com/loglayer/loglayer/internal/logx"
	"github.com/loglayer/loglayer/internal/session"
	"github.com/loglayer/loglayer/internal/substringengine"
)

// Bridge owns every open session and routes the request surface to them.
type Bridge struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	registry *layer.Registry
	engine   substringengine.Engine
	sink     events.Sink
	log      logx.Logger
}

// New constructs a Bridge. engine is the Substring Engine implementation
// every session's workers run against (EmbeddedEngine by default — see
// cmd/loglayer); sink is the event-sink handle Design Note "explicit
// event-sink handle passed to the bridge at construction" calls for,
// rather than a captured module-level global. A nil logger defaults to
// logx.NopLogger.
func New(registry *layer.Registry, engine substringengine.Engine, sink events.Sink, log logx.Logger) *Bridge {
	if log == nil {
		log = logx.NopLogger{}
	}
	return &Bridge{
		sessions: make(map[string]*entry),
		registry: registry,
		engine:   engine,
		sink:     sink,
		log:      log,
	}
}

// entry is one open session's bridge-side bookkeeping: the session itself,
// plus the zombie-list worker-retirement state for its pipeline and stats
// roles (spec.md §4.7/§5: "for any given (session, role) at most one
// worker is observable at a time").
type entry struct {
	mu      sync.Mutex
	sess    *session.Session
	workers map[string]*workerHandle
	zombies map[*workerHandle]struct{}
	// cleanup runs once, on CloseFile, after the session's mmap is
	// released — used by a directory session to remove its spool file.
	cleanup func()

	// baseCtx/baseCancel bound every worker this entry ever starts; closing
	// the file cancels baseCtx so no worker can outlive its session even if
	// it was never individually retired.
	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// workerHandle is one (session, role) worker's cancellation/identity pair.
// Replacing a worker moves its handle out of entry.workers and into
// entry.zombies (spec.md §4.7's "zombie list"); a handle checks its own
// identity against entry.workers[role] before committing any result, so a
// zombie's late completion is silently dropped rather than disconnected
// via a separate channel-close step.
type workerHandle struct {
	role   string
	cancel context.CancelFunc
	done   chan struct{}
}

// startWorker retires whichever worker currently holds role for e, then
// starts fn as the new holder. fn receives its own handle so it can tell,
// right before emitting any event or mutating session state, whether it
// has since been retired.
func (e *entry) startWorker(parent context.Context, role string, fn func(ctx context.Context, self *workerHandle)) *workerHandle {
	ctx, cancel := context.WithCancel(parent)
	h := &workerHandle{role: role, cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	if old, ok := e.workers[role]; ok {
		e.retireLocked(old)
	}
	e.workers[role] = h
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		fn(ctx, h)
	}()
	return h
}

// retireLocked cancels old, removes it as the role's active holder, and
// parks it in the zombie list until its goroutine actually exits (spec.md
// §4.7: "(b) signal cooperative cancellation, (c) move the worker handle
// to a zombie list, and (d) remove it from the list on its terminal event
// or on a periodic sweep"). Caller must hold e.mu.
func (e *entry) retireLocked(old *workerHandle) {
	old.cancel()
	delete(e.workers, old.role)
	if e.zombies == nil {
		e.zombies = make(map[*workerHandle]struct{})
	}
	e.zombies[old] = struct{}{}
	go func() {
		<-old.done
		e.mu.Lock()
		delete(e.zombies, old)
		e.mu.Unlock()
	}()
}

// isActive reports whether self is still the current holder of its role —
// a terminated (zombie) worker must not touch session state (spec.md
// §4.7/§5).
func (e *entry) isActive(self *workerHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workers[self.role] == self
}

// lookup returns the entry for fileID, or nil if no session is open under
// that id (spec.md §7: "session-not-found: request returns empty/default").
func (b *Bridge) lookup(fileID string) *entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessions[fileID]
}

// Session exposes the underlying session.Session for fileID, or nil.
// Read-only request handlers that don't need worker coordination (facade
// queries, bookmark reads) use this directly.
func (b *Bridge) Session(fileID string) *session.Session {
	e := b.lookup(fileID)
	if e == nil {
		return nil
	}
	return e.sess
}

// Registry exposes the Layer Registry for get_layer_registry/reload_plugins.
func (b *Bridge) Registry() *layer.Registry { return b.registry }

// CloseFile retires every worker for fileID and drops the session (spec.md
// §4.7). A no-op (not an error) if fileID isn't open.
func (b *Bridge) CloseFile(fileID string) {
	b.mu.Lock()
	e, ok := b.sessions[fileID]
	if ok {
		delete(b.sessions, fileID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	for _, h := range e.workers {
		e.retireLocked(h)
	}
	cleanup := e.cleanup
	e.mu.Unlock()
	e.baseCancel()

	if err := e.sess.Close(); err != nil {
		b.log.Log("warning", logx.Tagf("CLOSE_FILE", "file %s: %v", fileID, err))
	}
	if cleanup != nil {
		cleanup()
	}
}

// OpenFile implements spec.md §4.7's open_file: close any session already
// under fileID, memory-map path (or, if path is a directory, concatenate
// its files into a synthetic session per SPEC_FULL.md §5), start the Line
// Index build as its own tracked operation, and emit file_loaded on
// completion.
//
// ctx governs the index-build operation only; OpenFile itself returns once
// the build finishes (the source's "open_file" is a single synchronous
// round trip from the caller's perspective — spec.md never models it as
// fire-and-forget the way sync_layers is).
func (b *Bridge) OpenFile(ctx context.Context, fileID, path string) error {
	b.CloseFile(fileID)

	sess, cleanup, err := b.openSession(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	e := &entry{sess: sess, workers: make(map[string]*workerHandle), cleanup: cleanup, baseCtx: baseCtx, baseCancel: baseCancel}
	b.mu.Lock()
	b.sessions[fileID] = e
	b.mu.Unlock()
	sess.FileID = fileID

	b.sink.Emit(events.OperationStarted{FileID: fileID, Op: "index"})
	idx, err := lineindex.Build(ctx, sess.MappingBytes(), func(frac float64) {
		b.sink.Emit(events.OperationProgress{FileID: fileID, Op: "index", Percent: frac * 100})
	})
	if err != nil {
		b.CloseFile(fileID)
		if ctx.Err() != nil {
			// Mid-scan cancellation: signalled as a terminated operation,
			// no session created (spec.md §4.1) — no operation_error.
			return ctx.Err()
		}
		b.sink.Emit(events.OperationError{FileID: fileID, Op: "index", Message: err.Error()})
		return fmt.Errorf("build index for %s: %w", path, err)
	}

	sess.SetIndex(idx)
	b.sink.Emit(events.FileLoaded{FileID: fileID, Name: sess.Name, Size: sess.Size, LineCount: idx.LineCount()})
	return nil
}

// openSession opens path as an ordinary file session, or, when path names
// a directory, as a directory-as-virtual-file session (SPEC_FULL.md §5).
func (b *Bridge) openSession(path string) (*session.Session, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		sess, err := session.Open(path)
		return sess, nil, err
	}

	spoolPath, boundaries, err := spoolDirectory(path)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.Open(spoolPath)
	if err != nil {
		os.Remove(spoolPath)
		return nil, nil, err
	}
	// Path stays the spool file — the Pipeline/Stats Worker engines read it
	// directly — only the display Name takes the directory's own name.
	sess.Name = filepath.Base(path)
	sess.SetSourceResolver(resolveSource(boundaries))
	return sess, func() { os.Remove(spoolPath) }, nil
}
