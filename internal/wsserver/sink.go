package wsserver

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/loglayer/loglayer/internal/events"
	"github.com/loglayer/loglayer/internal/logx"
)

// connSinkBuffer bounds how many unsent events a slow client can fall
// behind by before further events for it are dropped, rather than letting Emit block the
// bridge's worker goroutines indefinitely.
const connSinkBuffer = 256

// connection is one connected WebSocket client: an outbound FIFO queue
// drained by its own writer goroutine, the single-threaded ordered
// delivery channel spec.md §5 requires per file_id (and, since one
// connection may watch several sessions, across all of them).
type connection struct {
	ws     *websocket.Conn
	queue  chan envelope
	done   chan struct{}
	log    logx.Logger
}

func newConnection(ws *websocket.Conn, log logx.Logger) *connection {
	c := &connection{ws: ws, queue: make(chan envelope, connSinkBuffer), done: make(chan struct{}), log: log}
	go c.writeLoop()
	return c
}

func (c *connection) writeLoop() {
	defer close(c.done)
	for env := range c.queue {
		data, err := json.Marshal(env)
		if err != nil {
			c.log.Log("warning", logx.Tagf("WS_ENCODE", "marshal %s: %v", env.Type, err))
			continue
		}
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			c.log.Log("warning", logx.Tagf("WS_WRITE", "%v", err))
			return
		}
	}
}

// enqueue appends env to the connection's FIFO queue, dropping it (and
// logging) rather than blocking if the client has fallen too far behind.
func (c *connection) enqueue(env envelope) {
	select {
	case c.queue <- env:
	default:
		c.log.Log("warning", logx.Tagf("WS_BACKPRESSURE", "dropping %s: client queue full", env.Type))
	}
}

func (c *connection) close() {
	close(c.queue)
	<-c.done
	c.ws.Close()
}

// Hub fans every event out to every connected client and implements
// events.Sink, the injected handle SPEC_FULL.md §4.7 calls for in place of
// a module-level emit global. Grounded on events.RecordingSink's
// mutex-guarded append, generalized from "append to a slice" to "enqueue
// onto every live connection's writer goroutine".
type Hub struct {
	mu    sync.RWMutex
	conns map[*connection]struct{}
	log   logx.Logger
}

// NewHub returns an empty Hub. A nil logger defaults to logx.NopLogger.
func NewHub(log logx.Logger) *Hub {
	if log == nil {
		log = logx.NopLogger{}
	}
	return &Hub{conns: make(map[*connection]struct{}), log: log}
}

var _ events.Sink = (*Hub)(nil)

// Emit implements events.Sink, broadcasting ev to every connected client.
func (h *Hub) Emit(ev events.Event) {
	env := toEnvelope(ev)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		c.enqueue(env)
	}
}

// add registers ws as a new client connection.
func (h *Hub) add(ws *websocket.Conn) *connection {
	c := newConnection(ws, h.log)
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// remove unregisters and closes c.
func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.close()
}
