// Package notifier relays appointment events to connected WebSocket
// clients. It is a best-effort fan-out: every connected client receives
// every event, nothing is persisted, and clients that connect after an
// event never see it. No core logic depends on delivery.
package notifier

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event names consumed by the frontend. Clients filter by role and
// identity on their side; the hub does no per-subscriber filtering.
const (
	EventNewAppointment = "newAppointment"
	EventUpdate         = "appointmentUpdate"
	EventStatusChange   = "appointmentStatusChange"
)

// Event is the frame written to each subscriber.
type Event struct {
	Name      string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single connected subscriber.
type Client struct {
	ID   string
	Send chan []byte
	conn Conn
}

// Hub tracks the set of currently-connected clients. All operations are
// thread-safe via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     zerolog.Logger
}

// NewHub creates a Hub ready to manage WebSocket clients.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client and closes its Send channel. Calling it
// twice for the same client is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// Broadcast delivers the named event to every connected client. Clients
// whose send buffer is full are skipped rather than blocked on.
func (h *Hub) Broadcast(name string, payload interface{}) {
	data, err := json.Marshal(Event{Name: name, Timestamp: time.Now(), Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", name).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by the CORS layer in front.
	},
}

// HandleConnect upgrades an HTTP request to a WebSocket, registers the
// client and starts its read/write pumps.
func (h *Hub) HandleConnect(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		conn: ws,
	}

	h.Register(client)
	h.log.Debug().Str("client", client.ID).Msg("websocket client connected")

	go h.writePump(client)
	go h.readPump(client)
}

// readPump drains inbound frames until the peer disconnects. Inbound
// payloads are ignored; the channel is server-to-client only.
func (h *Hub) readPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.conn.Close()
		h.log.Debug().Str("client", client.ID).Msg("websocket client disconnected")
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes queued events to the connection until Send closes.
func (h *Hub) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}
