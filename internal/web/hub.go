package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lexlang/lex/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // a local dev tool, not a deployed service
	},
}

// Client is one websocket connection. Handle is called from readPump for
// every inbound text message; its return value (if non-nil) is queued on
// Send for delivery back to the same connection. Handle carries whatever
// domain logic the server needs — this package stays ignorant of it.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	Handle func(msg []byte) []byte
}

// Send queues data for delivery to this client. It does not block the
// caller if the client's queue is full — the message is dropped rather
// than stalling the sender; the client stays connected.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// Hub tracks connected clients and can push a message to all of them at
// once (cmd/lexd uses it for its cache-cleared notice; most traffic in this
// server is a direct per-client request/response over Client.Handle).
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub's event loop; call it once, in its own goroutine, before
// accepting connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.Info("websocket client connected", "id", client.ID, "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.Info("websocket client disconnected", "id", client.ID, "clients", n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				client.Send(msg)
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues data for delivery to every currently connected client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		logging.Warn("websocket broadcast channel full, dropping message")
	}
}

// Count returns the number of currently registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Upgrade upgrades an HTTP connection to a websocket, registers a new
// Client with id and handle, and starts its read/write pumps. id should be
// unique per connection (cmd/lexd uses a uuid).
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, id string, handle func(msg []byte) []byte) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{ID: id, hub: h, conn: conn, send: make(chan []byte, 64), Handle: handle}
	h.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "id", c.ID, "error", err)
			}
			return
		}
		if c.Handle != nil {
			if reply := c.Handle(msg); reply != nil {
				c.Send(reply)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
