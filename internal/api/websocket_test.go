package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spritekiln/spritekiln/internal/ingest"
	"github.com/spritekiln/spritekiln/internal/store"
)

func dialTestHub(t *testing.T) (*Server, *websocket.Conn, func()) {
	t.Helper()

	s := NewServer(Config{}, ingest.New(store.NewMemory()))
	ts := httptest.NewServer(http.HandlerFunc(s.handleEvents))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}

	cleanup := func() {
		conn.Close()
		ts.Close()
	}
	return s, conn, cleanup
}

func TestHubBroadcastReachesClient(t *testing.T) {
	s, conn, cleanup := dialTestHub(t)
	defer cleanup()

	// Give the hub a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	s.hub.Complete("upload", "Upload completed successfully", map[string]interface{}{
		"icons": 3,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "complete" {
		t.Errorf("Type = %q, want complete", msg.Type)
	}
	if msg.Operation != "upload" {
		t.Errorf("Operation = %q, want upload", msg.Operation)
	}
	if msg.Progress != 100 {
		t.Errorf("Progress = %d, want 100", msg.Progress)
	}
	if msg.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

func TestHubProgressMessage(t *testing.T) {
	s, conn, cleanup := dialTestHub(t)
	defer cleanup()

	time.Sleep(50 * time.Millisecond)

	s.hub.Progress("upload", "sanitize", "Sanitizing sprite", 60)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "progress" || msg.Stage != "sanitize" || msg.Progress != 60 {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestHubDropsStalledClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	// The stalled client has no buffer and no reader; delivery must fail
	// over to the disconnect path rather than block the hub.
	stalled := &Client{hub: h, send: make(chan []byte)}
	healthy := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- stalled
	h.register <- healthy

	h.Broadcast(EventMessage{Type: "progress", Operation: "upload"})

	select {
	case _, ok := <-stalled.send:
		if ok {
			t.Error("stalled client received a message instead of being dropped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stalled client send channel was not closed")
	}

	select {
	case msg, ok := <-healthy.send:
		if !ok || len(msg) == 0 {
			t.Error("healthy client should still receive broadcasts")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy client never received the broadcast")
	}
}

func TestHubConcurrentRegisterAndBroadcast(t *testing.T) {
	h := NewHub()
	go h.Run()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.register <- &Client{hub: h, send: make(chan []byte, 1)}
		}
	}()

	for i := 0; i < 100; i++ {
		h.Broadcast(EventMessage{Type: "progress", Operation: "upload"})
	}
	<-done
}

func TestBroadcastOnNilHubIsNoop(t *testing.T) {
	var h *Hub
	// Must not panic.
	h.Broadcast(EventMessage{Type: "progress"})
	h.Progress("upload", "stage", "msg", 1)
	h.Complete("upload", "msg", nil)
	h.Error("upload", "msg")
}
