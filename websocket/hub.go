package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"bendy/models"

	"github.com/apex/log"
)

// Hub manages WebSocket connections and broadcasting. Each accepted
// crowd report is pushed to every connected listener, the server-side
// counterpart of the SPA's live snapshot subscription.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to clients
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mutex sync.RWMutex

	// Statistics
	lastBroadcastID  string
	connectedClients int
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Infof("client connected, total clients: %d", h.connectedClients)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			log.Infof("client disconnected, total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// BroadcastReport pushes a newly accepted report to all clients.
func (h *Hub) BroadcastReport(report models.CrowdReport) {
	message := models.BroadcastMessage{
		Type:      "report",
		Data:      report,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("failed to marshal broadcast message: %v", err)
		return
	}

	h.mutex.Lock()
	h.lastBroadcastID = report.ID
	h.mutex.Unlock()

	h.broadcast <- data
}

// GetStats returns the connected client count and the id of the last
// broadcast report.
func (h *Hub) GetStats() (int, string) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.lastBroadcastID
}
