package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
)

// connection represents a single WebSocket client
type connection struct {
	userID    int64
	conn      *websocket.Conn
	send      chan []byte
	resources map[Resource]bool // empty means every resource
}

// Hub fans change events out to connected clients. A user may hold several
// connections at once (several devices or tabs); each connection can narrow
// which resources it wants to hear about.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]map[*connection]struct{}
	unsubscribe func()
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]map[*connection]struct{}),
	}
}

// Start wires the hub to the event bus.
func (h *Hub) Start(bus Bus) error {
	unsub, err := bus.Subscribe(h.Deliver)
	if err != nil {
		return err
	}
	h.unsubscribe = unsub
	return nil
}

// Stop detaches the hub from the bus and drops every client.
func (h *Hub) Stop() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.connections {
		for c := range conns {
			close(c.send)
			c.conn.Close()
		}
	}
	h.connections = make(map[int64]map[*connection]struct{})
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[c.userID] == nil {
		h.connections[c.userID] = make(map[*connection]struct{})
	}
	h.connections[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; ok {
		delete(conns, c)
		close(c.send)
		if len(conns) == 0 {
			delete(h.connections, c.userID)
		}
	}
}

// Deliver routes one event to every live connection of its target user whose
// filter matches. Events never cross user boundaries.
func (h *Hub) Deliver(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections[evt.UserID] {
		if len(c.resources) > 0 && !c.resources[evt.Resource] {
			continue
		}
		select {
		case c.send <- data:
		default:
			// client too slow, skip
		}
	}
}

// ConnectionCount reports how many sockets are live, for the health endpoint.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// ServeWS registers a new connection and starts read/write loops. It blocks
// until the client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64, resources []Resource) {
	c := &connection{
		userID:    userID,
		conn:      conn,
		send:      make(chan []byte, 256),
		resources: make(map[Resource]bool),
	}
	for _, r := range resources {
		c.resources[r] = true
	}

	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// clientCommand is what clients may send upstream: filter changes and pings.
type clientCommand struct {
	Type      string   `json:"type"` // subscribe | unsubscribe | ping
	Resources []string `json:"resources,omitempty"`
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd clientCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}

		switch cmd.Type {
		case "subscribe":
			h.mu.Lock()
			for _, r := range cmd.Resources {
				if res, ok := ParseResource(r); ok {
					c.resources[res] = true
				}
			}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			for _, r := range cmd.Resources {
				delete(c.resources, Resource(r))
			}
			h.mu.Unlock()
		case "ping":
			select {
			case c.send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
