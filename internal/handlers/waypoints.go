package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/engine"
	"hither-backend/internal/models"
	"hither-backend/internal/websocket"
	"hither-backend/pkg/utils"
)

// broadcastItinerary fans the fresh itinerary out to every member except the
// actor, who already has the response body.
func broadcastItinerary(hub *websocket.Hub, group models.Group, actorID string, it models.GroupItinerary) {
	hub.BroadcastToUsers(group.MemberUserIDs(actorID), websocket.Event{
		Type: websocket.EventItineraryUpdated,
		Data: it,
	})
}

// GetItinerary returns the itinerary with its derived views so clients don't
// each re-implement the ordering rules.
func GetItinerary(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, _, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		it, err := database.GetItinerary(db, group.ID)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, "itinerary not found")
			return
		}

		utils.RespondData(w, http.StatusOK, map[string]interface{}{
			"itinerary": it,
			"active":    it.ActiveWaypoints(),
			"completed": it.CompletedWaypoints(),
			"current":   it.CurrentWaypoint(),
			"next":      it.NextWaypoint(),
		})
	}
}

func AddWaypoint(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var req models.AddWaypointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		it, err := database.GetItinerary(db, group.ID)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, "itinerary not found")
			return
		}

		updated, wp, err := engine.AddWaypoint(group, it, req, claims.UserID, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveItinerary(db, updated); err != nil {
			log.Printf("❌ Failed to save waypoint: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save waypoint")
			return
		}

		log.Printf("📍 Waypoint %q added to group %s by %s", wp.Name, group.ID, claims.UserID)
		broadcastItinerary(hub, group, claims.UserID, updated)
		utils.RespondData(w, http.StatusCreated, wp)
	}
}

// waypointTransition wraps the shared load / mutate / save / broadcast cycle
// for the progress endpoints.
func waypointTransition(
	db *sqlx.DB,
	hub *websocket.Hub,
	action string,
	mutate func(g models.Group, it models.GroupItinerary, waypointID, actingUserID string, now time.Time) (models.GroupItinerary, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		waypointID := chi.URLParam(r, "waypointID")
		if waypointID == "" {
			utils.RespondError(w, http.StatusBadRequest, "waypoint id is required")
			return
		}

		it, err := database.GetItinerary(db, group.ID)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, "itinerary not found")
			return
		}

		updated, err := mutate(group, it, waypointID, claims.UserID, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveItinerary(db, updated); err != nil {
			log.Printf("❌ Failed to save itinerary: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save itinerary")
			return
		}

		log.Printf("🧭 Waypoint %s %s in group %s by %s", waypointID, action, group.ID, claims.UserID)
		broadcastItinerary(hub, group, claims.UserID, updated)
		utils.RespondData(w, http.StatusOK, updated)
	}
}

func StartWaypoint(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return waypointTransition(db, hub, "started", engine.StartProgress)
}

func StopWaypoint(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return waypointTransition(db, hub, "stopped", engine.StopProgress)
}

func CompleteWaypoint(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return waypointTransition(db, hub, "completed", engine.MarkCompleted)
}

func DeleteWaypoint(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return waypointTransition(db, hub, "removed", engine.RemoveWaypoint)
}

func ReorderWaypoints(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var req models.ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		it, err := database.GetItinerary(db, group.ID)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, "itinerary not found")
			return
		}

		updated, err := engine.Reorder(group, it, req.WaypointIDs, claims.UserID, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveItinerary(db, updated); err != nil {
			log.Printf("❌ Failed to save reordered itinerary: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save itinerary")
			return
		}

		log.Printf("🔀 Itinerary reordered in group %s by %s", group.ID, claims.UserID)
		broadcastItinerary(hub, group, claims.UserID, updated)
		utils.RespondData(w, http.StatusOK, updated)
	}
}
