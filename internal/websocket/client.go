package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/engine"
	"hither-backend/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048
)

// Client represents a WebSocket client connection
type Client struct {
	UserID  string
	GroupID string
	conn    *websocket.Conn
	hub     *Hub
	send    chan []byte
	db      *sqlx.DB
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewClient creates a new WebSocket client
func NewClient(userID, groupID string, conn *websocket.Conn, hub *Hub, db *sqlx.DB) *Client {
	return &Client{
		UserID:  userID,
		GroupID: groupID,
		conn:    conn,
		hub:     hub,
		send:    make(chan []byte, 256),
		db:      db,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			// routed through the hub so the reply is dropped cleanly if the
			// hub has already closed this client's send channel
			c.hub.BroadcastToUsers([]string{c.UserID}, Event{
				Type: "pong",
				Data: map[string]string{"timestamp": time.Now().Format(time.RFC3339)},
			})

		case "location_update":
			c.handleLocationUpdate(msg.Data)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

type locationUpdatePayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // Client-side Unix timestamp
}

// handleLocationUpdate ingests the member's own location sample pushed over
// the socket, runs it through the tracker, persists the aggregate and fans
// the fresh position out to the rest of the group.
func (c *Client) handleLocationUpdate(data json.RawMessage) {
	var payload locationUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("❌ Invalid location_update payload from %s: %v", c.UserID, err)
		return
	}

	at := time.Now()
	if payload.Timestamp > 0 {
		at = time.Unix(payload.Timestamp, 0)
	}

	group, err := database.GetGroup(c.db, c.GroupID)
	if err != nil {
		log.Printf("❌ Failed to load group %s: %v", c.GroupID, err)
		return
	}

	point := models.GeoPoint{Latitude: payload.Latitude, Longitude: payload.Longitude}
	updated, err := engine.UpdateLocation(group, c.UserID, point, at)
	if err != nil {
		// out-of-order samples are dropped quietly, everything else is a
		// client bug worth logging
		if errors.Is(err, engine.ErrStaleWrite) {
			log.Printf("⏭ Stale location write from %s dropped", c.UserID)
		} else {
			log.Printf("❌ Location update from %s rejected: %v", c.UserID, err)
		}
		return
	}

	if err := database.SaveGroup(c.db, updated); err != nil {
		log.Printf("❌ Error saving location for %s: %v", c.UserID, err)
		return
	}

	member := updated.FindMember(c.UserID)
	c.hub.BroadcastToUsers(updated.MemberUserIDs(c.UserID), Event{
		Type: EventMemberLocation,
		Data: member,
	})
}
