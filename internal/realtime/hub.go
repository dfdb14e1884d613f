package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Hub owns the registry of connected websocket clients and fans messages out to them.
// Delivery is best effort: a client that cannot keep up is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	sendBuffer   int
	writeTimeout time.Duration
	relay        bool
	upgrader     websocket.Upgrader
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// NewHub creates a hub. Connections are accepted from the given browser origins;
// an empty list accepts every origin.
func NewHub(cfg *config.RealtimeConfig, allowedOrigins []string) *Hub {
	h := &Hub{
		clients:      make(map[string]*client),
		sendBuffer:   16,
		writeTimeout: 10 * time.Second,
	}
	if cfg != nil {
		if cfg.SendBuffer > 0 {
			h.sendBuffer = cfg.SendBuffer
		}
		if cfg.WriteTimeout > 0 {
			h.writeTimeout = cfg.WriteTimeout
		}
		h.relay = cfg.RelayClientMessages
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// register adds a client under id. Registering an existing id replaces the old client.
func (h *Hub) register(id string, conn *websocket.Conn) *client {
	c := &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	old, exists := h.clients[id]
	h.clients[id] = c
	h.mu.Unlock()

	if exists {
		old.close()
	}
	log.Debug("realtime client connected", "id", id, "clients", h.Count())
	return c
}

// Unregister removes the client and closes its send channel. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		c.close()
		log.Debug("realtime client disconnected", "id", id)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes msg as JSON and queues it for every client except excludeID.
func (h *Hub) Broadcast(msg any, excludeID string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode realtime message: %w", err)
	}
	h.BroadcastRaw(data, excludeID)
	return nil
}

// BroadcastRaw queues an already encoded message. It never blocks: clients whose
// buffer is full are dropped.
func (h *Hub) BroadcastRaw(data []byte, excludeID string) {
	var slow []string

	h.mu.RLock()
	for id, c := range h.clients {
		if id == excludeID {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		log.Warn("dropping slow realtime client", "id", id)
		h.Unregister(id)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// ServeWS upgrades the request and keeps the connection registered until it closes.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}

	cl := h.register(uuid.NewString(), conn)
	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(c *client) {
	defer h.Unregister(c.id)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("realtime client read error", "id", c.id, "error", err)
			}
			return
		}
		if !h.relay {
			continue
		}

		var envelope struct {
			Type MessageType `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil || !envelope.Type.Known() {
			log.Debug("ignoring realtime client message", "id", c.id)
			continue
		}
		h.BroadcastRaw(data, c.id)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.Unregister(c.id)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(c.id)
				return
			}
		}
	}
}
