package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	eventsChannel  = "notify:events"
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 16
)

type hubEvent struct {
	UserID  int64           `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// Connection represents one websocket client
type Connection struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans notification events out to connected clients. With Redis
// configured, events travel through Pub/Sub so every instance delivers to its
// own local connections; without Redis delivery is instance-local.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]map[*Connection]bool

	redis    *redis.Client // nil if Redis disabled
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a notification hub
func NewHub(redisClient *redis.Client, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		connections: make(map[int64]map[*Connection]bool),
		redis:       redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run consumes the Redis events channel until Stop is called. No-op without
// Redis.
func (h *Hub) Run() {
	if h.redis == nil {
		return
	}

	pubsub := h.redis.Subscribe(h.ctx, eventsChannel)
	defer pubsub.Close()

	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event hubEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("Malformed hub event")
				continue
			}
			h.deliverLocal(event.UserID, event.Payload)
		}
	}
}

// Stop shuts the hub down
func (h *Hub) Stop() {
	h.cancel()
}

// Publish sends a payload to every connection of userID, across instances
// when Redis is available
func (h *Hub) Publish(userID int64, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to marshal hub payload")
		return
	}

	if h.redis != nil {
		event, _ := json.Marshal(hubEvent{UserID: userID, Payload: raw})
		if err := h.redis.Publish(h.ctx, eventsChannel, event).Err(); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to publish hub event")
		}
		return
	}

	h.deliverLocal(userID, raw)
}

func (h *Hub) deliverLocal(userID int64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.connections[userID] {
		select {
		case c.send <- payload:
		default:
			// Slow consumer, drop the event
		}
	}
}

// ServeWS upgrades the request and pumps events to the client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &Connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	h.register(c)

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[c.userID] == nil {
		h.connections[c.userID] = make(map[*Connection]bool)
	}
	h.connections[c.userID][c] = true
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.connections[c.userID]; ok {
		if conns[c] {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.connections, c.userID)
			}
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// readPump discards client frames; the stream is one-way. It keeps the
// connection alive and detects disconnects.
func (c *Connection) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}
