package wsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loglayer/loglayer/internal/bridge"
	"github.com/loglayer/loglayer/internal/cache"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/substringengine"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(nil)
	b := bridge.New(layer.NewRegistry(), substringengine.NewEmbeddedEngine(), hub, nil)
	srv := New(b, hub, nil)
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)
	return ts, hub
}

func TestServerOpenFileThenReadLines(t *testing.T) {
	path := writeTestFile(t, "alpha\nbeta\ngamma\n")
	ts, _ := newTestServer(t)

	body, _ := json.Marshal(openFileRequest{FileID: "f1", Path: path})
	resp, err := http.Post(ts.URL+"/api/files", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("POST /api/files: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/files/f1/lines?start=0&count=10")
	if err != nil {
		t.Fatalf("GET lines: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var rows []cache.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
}

func TestServerSessionNotFoundReturnsEmptyLines(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/files/missing/lines?start=0&count=10")
	if err != nil {
		t.Fatalf("GET lines: %v", err)
	}
	defer resp.Body.Close()

	var rows []cache.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if rows != nil {
		t.Fatalf("rows = %v, want nil for an unopened session", rows)
	}
}

func TestServerGetLayerRegistryListsBuiltins(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/layer-registry")
	if err != nil {
		t.Fatalf("GET layer-registry: %v", err)
	}
	defer resp.Body.Close()

	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		t.Fatalf("decode ids: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == "substring-filter" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ids = %v, want it to contain %q", ids, "substring-filter")
	}
}

func TestHubBroadcastsFileLoadedToConnectedClient(t *testing.T) {
	hub := NewHub(nil)
	b := bridge.New(layer.NewRegistry(), substringengine.NewEmbeddedEngine(), hub, nil)
	srv := New(b, hub, nil)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	path := writeTestFile(t, "only line\n")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.OpenFile(ctx, "f1", path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	// OpenFile emits operation_started (and maybe progress) before
	// file_loaded; read until file_loaded arrives.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var types []string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage after %v: %v", types, err)
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		types = append(types, env.Type)
		if env.Type == "file_loaded" {
			break
		}
	}
	if types[0] != "operation_started" {
		t.Fatalf("event types = %v, want operation_started first, then file_loaded", types)
	}
}
