package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/engine"
	"hither-backend/internal/models"
	"hither-backend/internal/websocket"
	"hither-backend/pkg/utils"
)

type updateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp,omitempty"` // Client-side Unix timestamp
}

// UpdateLocation is the HTTP fallback for clients without a live WebSocket.
// Out-of-order samples are acknowledged but dropped, so flaky mobile clients
// retrying old requests don't rewind anyone's position.
func UpdateLocation(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var req updateLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		at := time.Now()
		if req.Timestamp > 0 {
			at = time.Unix(req.Timestamp, 0)
		}

		point := models.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude}
		updated, err := engine.UpdateLocation(group, claims.UserID, point, at)
		if err != nil {
			if errors.Is(err, engine.ErrStaleWrite) {
				log.Printf("⏭ Stale location write from %s dropped", claims.UserID)
				utils.RespondData(w, http.StatusOK, map[string]interface{}{"applied": false})
				return
			}
			respondEngineError(w, err)
			return
		}
		if err := database.SaveGroup(db, updated); err != nil {
			log.Printf("❌ Failed to save location for %s: %v", claims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save location")
			return
		}

		hub.BroadcastToUsers(updated.MemberUserIDs(claims.UserID), websocket.Event{
			Type: websocket.EventMemberLocation,
			Data: updated.FindMember(claims.UserID),
		})
		utils.RespondData(w, http.StatusOK, map[string]interface{}{"applied": true})
	}
}

// GetMembers returns the roster with per-member staleness plus an online
// count for the group header.
func GetMembers(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, _, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		now := time.Now()
		utils.RespondData(w, http.StatusOK, map[string]interface{}{
			"members":      engine.MemberStaleness(group, now),
			"online_count": engine.OnlineMemberCount(group, now),
		})
	}
}
