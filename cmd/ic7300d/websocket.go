package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ProgressEvent is one progress update streamed to web clients during a bulk
// radio operation.
type ProgressEvent struct {
	Operation string `json:"operation"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
	Error     string `json:"error,omitempty"`
}

// ProgressHub fans progress events out to connected websocket clients.
type ProgressHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	events  chan ProgressEvent
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan ProgressEvent, 64),
	}
}

// Run broadcasts queued events until the context is cancelled.
func (h *ProgressHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = make(map[*websocket.Conn]bool)
			h.mu.Unlock()
			return

		case event := <-h.events:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event, dropping it if the hub is backed up. Progress
// updates are advisory; a dropped one never stalls a radio operation.
func (h *ProgressHub) Broadcast(event ProgressEvent) {
	select {
	case h.events <- event:
	default:
	}
}

// Progress returns a callback suitable for the manager's bulk operations.
func (h *ProgressHub) Progress(operation string) func(current, total int) {
	return func(current, total int) {
		h.Broadcast(ProgressEvent{Operation: operation, Current: current, Total: total})
	}
}

// Finish announces a bulk operation's completion or failure.
func (h *ProgressHub) Finish(operation string, err error) {
	event := ProgressEvent{Operation: operation, Done: true}
	if err != nil {
		event.Error = err.Error()
	}
	h.Broadcast(event)
}

func (h *ProgressHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *ProgressHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// handleWebSocket upgrades the connection and keeps it registered until the
// client goes away. Inbound messages are discarded; the socket is outbound
// progress only.
func (d *Daemon) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warnf("web", "websocket upgrade failed: %v", err)
		return
	}

	d.hub.add(conn)
	defer d.hub.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
