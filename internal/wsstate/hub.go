// Package wsstate broadcasts renderer state snapshots to any number of
// subscribed websocket clients. It is push-only: the hub never expects or
// parses messages back from a subscriber, unlike the teacher's
// spotifysearch connection manager, which correlates requests and
// responses over a single connection. Grounded on that package's
// ping-loop/read-loop-drives-disconnect lifecycle, adapted from "one
// tracked connection" to "a set of subscribers".
package wsstate

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks every currently-subscribed connection and fans out
// broadcasts to all of them.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]chan struct{}
}

// New builds an empty Hub.
func New() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]chan struct{})}
}

// ServeHTTP upgrades the request to a websocket connection and registers
// it as a subscriber until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsstate: upgrade failed: %v", err)
		return
	}

	stop := make(chan struct{})
	h.mu.Lock()
	h.conns[conn] = stop
	h.mu.Unlock()

	go h.pingLoop(conn, stop)
	h.readLoop(conn, stop)
}

// pingLoop keeps intermediaries from closing an otherwise idle connection.
func (h *Hub) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop exists solely to detect client disconnects: subscribers never
// send meaningful messages, but a dead read is the only reliable signal
// that the peer has gone away.
func (h *Hub) readLoop(conn *websocket.Conn, stop chan struct{}) {
	defer h.remove(conn, stop)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn, stop chan struct{}) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(stop)
	}
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends payload as a JSON text frame to every subscriber.
// Subscribers that fail to receive it are dropped.
func (h *Hub) Broadcast(payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			stop, ok := h.conns[conn]
			if ok {
				h.remove(conn, stop)
			}
		}
	}
}

// Count returns the current subscriber count, for /info.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
