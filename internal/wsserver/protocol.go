// Package wsserver binds the Bridge's transport-agnostic request surface
// to HTTP/WebSocket via echo and gorilla/websocket. The wiring below
// follows each library's own idiomatic usage rather than a specific
// source file — see DESIGN.md.
package wsserver

import "github.com/loglayer/loglayer/internal/events"

// envelope is the wire shape of one event delivered over a session's
// WebSocket connection: the event's own wire name plus its payload.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// toEnvelope mirrors the event sink's Event interface into the JSON
// envelope every connected client receives.
func toEnvelope(ev events.Event) envelope {
	return envelope{Type: ev.Name(), Data: ev}
}

// openFileRequest is the JSON body of POST /api/files.
type openFileRequest struct {
	FileID string `json:"file_id"`
	Path   string `json:"path"`
}

// layerSpecWire is the JSON wire shape of one layer in a sync request,
// mirroring bridge.LayerSpec.
type layerSpecWire struct {
	ID      string         `json:"id"`
	TypeID  string         `json:"type_id"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config"`
}

// searchConfigWire mirrors pipeline.SearchConfig.
type searchConfigWire struct {
	Query         string `json:"query"`
	IsRegex       bool   `json:"is_regex"`
	CaseSensitive bool   `json:"case_sensitive"`
	WholeWord     bool   `json:"whole_word"`
}

// syncLayersRequest is the JSON body of POST /api/files/:id/layers.
type syncLayersRequest struct {
	Layers []layerSpecWire   `json:"layers"`
	Search *searchConfigWire `json:"search,omitempty"`
}

// syncDecorationsRequest is the JSON body of POST /api/files/:id/decorations.
type syncDecorationsRequest struct {
	Layers []layerSpecWire `json:"layers"`
}

// searchRequest is the JSON body of POST /api/files/:id/search.
type searchRequest struct {
	Search searchConfigWire `json:"search"`
}

// bookmarkCommentRequest is the JSON body of POST
// /api/files/:id/bookmarks/:line/comment.
type bookmarkCommentRequest struct {
	Text string `json:"text"`
}
