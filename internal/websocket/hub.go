package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/flightpro/booking-server/internal/database"
	"github.com/flightpro/booking-server/internal/inventory"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	MessageTypeFlightUpdated MessageType = "flight_updated"
	MessageTypeFlightDeleted MessageType = "flight_deleted"
)

// Message is an availability snapshot pushed to clients watching a
// flight. Capacity and IsFull reflect the flight's state after its last
// ledger write.
type Message struct {
	Type      MessageType `json:"type"`
	FlightID  string      `json:"flightId"`
	Capacity  int         `json:"capacity,omitempty"`
	SeatsLeft int         `json:"seatsLeft,omitempty"`
	IsFull    bool        `json:"isFull,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	flightID uuid.UUID
}

// Hub manages WebSocket connections per flight and fans availability
// updates out to them.
type Hub struct {
	log        *logrus.Logger
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	mu         sync.RWMutex
}

// NewHub creates a new Hub. Call Run in a goroutine to start it.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.flightID] == nil {
				h.clients[client.flightID] = make(map[*Client]bool)
			}
			h.clients[client.flightID][client] = true
			h.mu.Unlock()
			h.log.WithField("flight_id", client.flightID).Debug("websocket client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.flightID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.flightID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			flightID, err := uuid.Parse(message.FlightID)
			if err != nil {
				continue
			}
			data, err := json.Marshal(message)
			if err != nil {
				h.log.WithError(err).Error("failed to marshal websocket message")
				continue
			}

			h.mu.RLock()
			clients := h.clients[flightID]
			h.mu.RUnlock()

			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.mu.Lock()
					delete(h.clients[flightID], client)
					close(client.send)
					h.mu.Unlock()
				}
			}
		}
	}
}

// FlightUpdated broadcasts the flight's new availability snapshot.
func (h *Hub) FlightUpdated(f *database.Flight) {
	h.broadcast <- &Message{
		Type:      MessageTypeFlightUpdated,
		FlightID:  f.ID.String(),
		Capacity:  f.Capacity,
		SeatsLeft: inventory.Remaining(f),
		IsFull:    f.IsFull,
		Timestamp: time.Now().UnixMilli(),
	}
}

// FlightDeleted notifies watchers that the flight no longer exists.
func (h *Hub) FlightDeleted(flightID uuid.UUID) {
	h.broadcast <- &Message{
		Type:      MessageTypeFlightDeleted,
		FlightID:  flightID.String(),
		Timestamp: time.Now().UnixMilli(),
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and subscribes it to a flight's
// availability updates.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, flightID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 16),
		flightID: flightID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only listen; discard anything they send.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
