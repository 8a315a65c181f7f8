package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub.clients == nil {
		t.Error("clients map is nil")
	}
	if hub.broadcast == nil {
		t.Error("broadcast channel is nil")
	}
	if hub.register == nil {
		t.Error("register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("unregister channel is nil")
	}
}

func dialServer(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

func TestHub_UpgradeRegistersClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Upgrade(w, r, "client-1", nil); err != nil {
			t.Errorf("Upgrade() error = %v", err)
		}
	}))
	defer server.Close()

	conn := dialServer(t, server)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)
	if got := hub.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Upgrade(w, r, "client-1", nil)
	}))
	defer server.Close()

	conn := dialServer(t, server)
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast([]byte("hello"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("received %q, want %q", data, "hello")
	}
}

func TestHub_HandleEchoesReply(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Upgrade(w, r, "client-1", func(msg []byte) []byte {
			return append([]byte("echo:"), msg...)
		})
	}))
	defer server.Close()

	conn := dialServer(t, server)
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(data) != "echo:ping" {
		t.Errorf("received %q, want %q", data, "echo:ping")
	}
}

func TestHub_HandleNilReplySendsNothing(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Upgrade(w, r, "client-1", func(msg []byte) []byte { return nil })
	}))
	defer server.Close()

	conn := dialServer(t, server)
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	conn.WriteMessage(websocket.TextMessage, []byte("ping"))

	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() returned a message, want a timeout since Handle returned nil")
	}
}

func TestHub_DisconnectUnregistersClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Upgrade(w, r, "client-1", nil)
	}))
	defer server.Close()

	conn := dialServer(t, server)
	time.Sleep(100 * time.Millisecond)
	if got := hub.Count(); got != 1 {
		t.Fatalf("Count() before disconnect = %d, want 1", got)
	}

	conn.Close()
	time.Sleep(150 * time.Millisecond)
	if got := hub.Count(); got != 0 {
		t.Errorf("Count() after disconnect = %d, want 0", got)
	}
}
