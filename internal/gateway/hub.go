package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/orchestrator"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	clientBuffer   = 32
	maxMessageSize = 1024
)

// Hub fans turn events out to WebSocket subscribers per thread. It
// satisfies the orchestrator's event Sink; Emit never blocks, slow
// clients simply miss events.
type Hub struct {
	log      *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		log:     log.Sub("events"),
		clients: make(map[string]map[*wsClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type wsClient struct {
	conn *websocket.Conn
	send chan orchestrator.Event
}

// Emit delivers an event to every subscriber of its thread.
func (h *Hub) Emit(ev orchestrator.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.ThreadID] {
		select {
		case c.send <- ev:
		default:
			// Slow consumer; it will be reaped by its write pump.
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, clients := range h.clients {
		for c := range clients {
			close(c.send)
		}
	}
	h.clients = make(map[string]map[*wsClient]bool)
}

// serveWS upgrades the connection and streams events for one thread.
func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request, threadID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan orchestrator.Event, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if h.clients[threadID] == nil {
		h.clients[threadID] = make(map[*wsClient]bool)
	}
	h.clients[threadID][c] = true
	h.mu.Unlock()

	h.log.Debug().Str("thread", threadID).Msg("event subscriber connected")

	go h.writePump(c, threadID)
	h.readPump(c, threadID)
}

func (h *Hub) remove(c *wsClient, threadID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[threadID]; ok {
		if clients[c] {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.clients, threadID)
		}
	}
}

// readPump discards inbound frames; it exists to notice disconnects.
func (h *Hub) readPump(c *wsClient, threadID string) {
	defer func() {
		h.remove(c, threadID)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient, threadID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				h.log.Debug().Str("thread", threadID).Err(err).Msg("event write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
