package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Mobile clients connect without an Origin header
		return true
	},
}

// HandleWebSocket upgrades the connection for a group member. The JWT rides
// in the token query parameter since WebSocket handshakes cannot carry an
// Authorization header from the mobile clients.
func HandleWebSocket(hub *Hub, db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userClaims, ok := middleware.ParseToken(tokenString)
		if !ok {
			log.Println("❌ Invalid token on WebSocket handshake")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		groupID := r.URL.Query().Get("group_id")
		if groupID == "" {
			http.Error(w, "group_id is required", http.StatusBadRequest)
			return
		}

		group, err := database.GetGroup(db, groupID)
		if err != nil {
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}
		if group.FindMember(userClaims.UserID) == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(userClaims.UserID, groupID, conn, hub, db)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
