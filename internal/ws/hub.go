package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans session events out to every client subscribed to that session's
// channel. Delivery is best-effort and at-most-once: a client that misses an
// event recovers by re-fetching the full session state.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*websocket.Conn]bool)
	}
	h.channels[channel][conn] = true
	log.Printf("ws: client connected to %s (total: %d)", channel, len(h.channels[channel]))
}

func (h *Hub) RemoveConnection(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.channels[channel]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
		log.Printf("ws: client disconnected from %s", channel)
	}
}

// Broadcast sends one event to every subscriber of the channel. Events go out
// under the hub lock, so per-channel emission order matches call order.
func (h *Hub) Broadcast(channel string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.channels[channel]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
		}
	}
}
