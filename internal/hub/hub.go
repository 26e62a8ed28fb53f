// Package hub serves the presentation layer: every status and transcript
// event from the dialogue loop is broadcast as JSON to connected websocket
// clients, and clients can push a stop request back.
package hub

import (
	"log/slog"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"

	"sage/internal/assistant"
)

// Message is one JSON frame pushed to presentation clients.
type Message struct {
	Kind    string             `json:"kind"` // "session", "status" or "transcript"
	Role    string             `json:"role,omitempty"`
	Text    string             `json:"text,omitempty"`
	Session *assistant.Session `json:"session,omitempty"`
}

// Hub fans bridge events out to websocket clients. A client that cannot keep
// up is dropped so it can never back-pressure the dialogue loop.
type Hub struct {
	upgrader ws.Upgrader
	loop     *assistant.Loop

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *ws.Conn
	send chan Message
}

func New(loop *assistant.Loop) *Hub {
	return &Hub{
		upgrader: ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		loop:     loop,
		clients:  make(map[*client]struct{}),
	}
}

// Attach subscribes to the bridge and starts forwarding its events.
func (h *Hub) Attach(b *assistant.Bridge) {
	status := b.SubscribeStatus()
	transcript := b.SubscribeTranscript()

	go func() {
		for text := range status {
			h.broadcast(Message{Kind: "status", Text: text})
		}
	}()
	go func() {
		for ev := range transcript {
			h.broadcast(Message{Kind: "transcript", Role: string(ev.Role), Text: ev.Text})
		}
	}()
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	return mux
}

func (h *Hub) ListenAndServe(addr string) error {
	slog.Info("hub listening", "addr", addr)
	return http.ListenAndServe(addr, h.Handler())
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, 64)}

	sess := h.loop.Session()
	c.send <- Message{Kind: "session", Session: &sess}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			break
		}
	}
	c.conn.Close()
}

// readLoop consumes client frames until the connection dies. The only
// inbound command is a stop request.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Kind == "stop" {
			slog.Info("stop requested by client")
			h.loop.Stop()
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// client too slow, drop it rather than stall delivery
			delete(h.clients, c)
			close(c.send)
		}
	}
}
