package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/engine"
	"hither-backend/internal/models"
	"hither-backend/internal/services"
	"hither-backend/internal/websocket"
	"hither-backend/pkg/utils"
)

// defaultCommandHistory is how many log entries the feed shows by default.
const defaultCommandHistory = 6

func SendCommand(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var req models.SendCommandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var loc *models.GeoPoint
		if req.Latitude != nil && req.Longitude != nil {
			loc = &models.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
		}

		cmd, note, err := engine.SendCommand(group, claims.UserID, req.Type, req.Message, loc, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.InsertCommand(db, cmd); err != nil {
			log.Printf("❌ Failed to save command: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save command")
			return
		}

		log.Printf("📢 Command %s from %s in group %s", cmd.Type, cmd.SenderName, group.ID)

		hub.BroadcastToUsers(note.RecipientUserIDs, websocket.Event{
			Type: websocket.EventCommandReceived,
			Data: cmd,
		})

		if fcm != nil {
			tokens, err := database.FCMTokensForUsers(db, note.RecipientUserIDs)
			if err != nil {
				log.Printf("⚠️ Failed to resolve FCM tokens: %v", err)
			} else if err := fcm.DispatchNotification(note, tokens); err != nil {
				log.Printf("⚠️ Failed to push command notification: %v", err)
			}
		}

		payload := map[string]interface{}{"command": cmd}
		if cmd.Type == models.CommandCustom {
			if warning := engine.CustomMessageWarning(cmd.Message); warning != "" {
				payload["warning"] = warning
			}
		}
		utils.RespondData(w, http.StatusCreated, payload)
	}
}

// GetCommands returns the group's command feed, most recent first. The limit
// query parameter overrides the default history depth; limit=0 means all.
func GetCommands(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, _, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		limit := defaultCommandHistory
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = parsed
		}

		commands, err := database.GetCommands(db, group.ID, limit)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to fetch commands")
			return
		}
		utils.RespondData(w, http.StatusOK, commands)
	}
}
