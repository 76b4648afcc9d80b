// Package hub fans controller events out to WebSocket clients. It is
// the presentation sink: the game core publishes state snapshots and
// discrete notifications here and has no opinion on who is listening.
package hub

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vortkvizo/internal/session"
)

const (
	writeTimeout = 5 * time.Second
	// sendBuffer is how many events a client may fall behind before it
	// is dropped. Publish must never block the game core.
	sendBuffer = 16
)

// Hub tracks connected clients grouped by session ID.
type Hub struct {
	mu      sync.Mutex
	clients map[string][]*client

	upgrader websocket.Upgrader
}

// client owns one connection. Writes go through send so the publisher
// never touches the socket; done tears the writer down exactly once.
type client struct {
	conn *websocket.Conn
	send chan session.Event
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		clients: make(map[string][]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request to a WebSocket and keeps it registered
// under sessionID until the peer disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan session.Event, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[sessionID] = append(h.clients[sessionID], c)
	h.mu.Unlock()
	log.Printf("[INFO] websocket client joined session %s", sessionID)

	go h.writeLoop(sessionID, c)

	// Drain reads so pings and close frames are processed; the hub is
	// push-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(sessionID, c)
}

// writeLoop drains the client's queue onto the socket.
func (h *Hub) writeLoop(sessionID string, c *client) {
	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("[WARN] dropping websocket client of session %s: %v", sessionID, err)
				h.drop(sessionID, c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Publish queues an event for every client of a session. It never
// blocks: a client whose queue is full is dropped instead.
func (h *Hub) Publish(sessionID string, ev session.Event) {
	h.mu.Lock()
	targets := make([]*client, len(h.clients[sessionID]))
	copy(targets, h.clients[sessionID])
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- ev:
		case <-c.done:
		default:
			log.Printf("[WARN] dropping slow websocket client of session %s", sessionID)
			h.drop(sessionID, c)
		}
	}
}

// drop unregisters a client and stops its writer, pruning the session
// entry when empty. Safe to call more than once per client.
func (h *Hub) drop(sessionID string, target *client) {
	h.mu.Lock()
	list := h.clients[sessionID]
	for i, c := range list {
		if c == target {
			h.clients[sessionID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(h.clients[sessionID]) == 0 {
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()

	target.close()
	target.conn.Close()
}

// ClientCount reports the number of clients attached to a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}
