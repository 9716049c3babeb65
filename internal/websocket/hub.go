package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is the envelope fanned out to connected group members. This is the
// "onChange" half of the replication interface: clients apply the payload
// through their idempotent remote-apply paths, so duplicate delivery is fine.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	EventGroupUpdated     = "group_updated"
	EventItineraryUpdated = "itinerary_updated"
	EventCommandReceived  = "command_received"
	EventMemberLocation   = "member_location"
	EventFindRequest      = "find_request"
)

// Hub maintains active WebSocket connections and broadcasts events
type Hub struct {
	// Registered clients (userID -> Client, one connection per user)
	clients map[string]*Client

	// Outbound events targeted at a set of users
	broadcast chan *targetedEvent

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

type targetedEvent struct {
	UserIDs []string
	Event   Event
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *targetedEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("✅ [WS] Client connected: %s (group %s, %d total)", client.UserID, client.GroupID, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[client.UserID]; ok && existing == client {
				delete(h.clients, client.UserID)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("🔴 [WS] Client disconnected: %s (%d remaining)", client.UserID, h.ClientCount())

		case te := <-h.broadcast:
			data, err := json.Marshal(te.Event)
			if err != nil {
				log.Printf("❌ Failed to marshal event: %v", err)
				continue
			}
			h.mu.Lock()
			for _, userID := range te.UserIDs {
				client, ok := h.clients[userID]
				if !ok {
					continue
				}
				select {
				case client.send <- data:
				default:
					// Client buffer full, disconnect
					close(client.send)
					delete(h.clients, userID)
					log.Printf("⚠️ Client buffer full, disconnecting: %s", userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToUsers queues an event for a specific set of users
func (h *Hub) BroadcastToUsers(userIDs []string, event Event) {
	if len(userIDs) == 0 {
		return
	}
	h.broadcast <- &targetedEvent{UserIDs: userIDs, Event: event}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
