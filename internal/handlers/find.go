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
	"hither-backend/internal/geo"
	"hither-backend/internal/models"
	"hither-backend/internal/services"
	"hither-backend/internal/websocket"
	"hither-backend/pkg/utils"
)

// StartFind opens a proximity-finding session against another member and
// pings them so they keep their location fresh.
func StartFind(db *sqlx.DB, store database.SessionStore, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var req models.StartFindRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		session, err := engine.StartFind(group, claims.UserID, req.TargetUserID, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := store.SaveSession(r.Context(), session); err != nil {
			log.Printf("❌ Failed to save find session: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to start find session")
			return
		}

		log.Printf("🔍 Find session %s: %s looking for %s", session.ID, claims.UserID, req.TargetUserID)

		hub.BroadcastToUsers([]string{req.TargetUserID}, websocket.Event{
			Type: websocket.EventFindRequest,
			Data: session,
		})
		if fcm != nil {
			tokens, err := database.FCMTokensForUsers(db, []string{req.TargetUserID})
			if err != nil {
				log.Printf("⚠️ Failed to resolve FCM tokens: %v", err)
			} else if err := fcm.SendFindRequestNotification(tokens, claims.Name); err != nil {
				log.Printf("⚠️ Failed to send find notification: %v", err)
			}
		}

		utils.RespondData(w, http.StatusCreated, session)
	}
}

type findPollResponse struct {
	Session        models.FindSession `json:"session"`
	Bearing        *float64           `json:"bearing,omitempty"`
	DistanceMeters *float64           `json:"distance_meters,omitempty"`
	DistanceText   string             `json:"distance_text,omitempty"`
	TargetLocation *models.GeoPoint   `json:"target_location,omitempty"`
}

// loadFindSession resolves {sessionID} and checks the caller is a party to
// the session and that it belongs to this group.
func loadFindSession(w http.ResponseWriter, r *http.Request, store database.SessionStore, group models.Group, userID string) (models.FindSession, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session id is required")
		return models.FindSession{}, false
	}

	session, err := store.GetSession(r.Context(), sessionID)
	if err != nil {
		respondEngineError(w, err)
		return models.FindSession{}, false
	}
	if session.GroupID != group.ID {
		utils.RespondError(w, http.StatusNotFound, "not found")
		return models.FindSession{}, false
	}
	if session.RequesterID != userID && session.TargetID != userID {
		utils.RespondError(w, http.StatusForbidden, "not a party to this session")
		return models.FindSession{}, false
	}
	return session, true
}

// PollFind re-evaluates the session and, while it stays active, returns the
// live bearing and distance from the requester to the target.
func PollFind(db *sqlx.DB, store database.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}
		session, ok := loadFindSession(w, r, store, group, claims.UserID)
		if !ok {
			return
		}

		updated := engine.Heartbeat(group, session, time.Now())
		if updated.State != session.State || updated.UpdatedAt != session.UpdatedAt {
			if err := store.SaveSession(r.Context(), updated); err != nil {
				log.Printf("⚠️ Failed to save find session %s: %v", updated.ID, err)
			}
		}

		resp := findPollResponse{Session: updated}
		if updated.State == models.FindActive {
			requester := group.FindMember(updated.RequesterID)
			target := group.FindMember(updated.TargetID)
			if requester != nil && target != nil {
				targetLoc := target.Location()
				resp.TargetLocation = targetLoc
				if from := requester.Location(); from != nil && targetLoc != nil {
					bearing := geo.BearingDegrees(*from, *targetLoc)
					meters, text := engine.DistanceAndDescription(*from, *targetLoc)
					resp.Bearing = &bearing
					resp.DistanceMeters = &meters
					resp.DistanceText = text
				}
			}
		}

		utils.RespondData(w, http.StatusOK, resp)
	}
}

func CancelFind(db *sqlx.DB, store database.SessionStore) http.HandlerFunc {
	return endFind(db, store, "cancelled", engine.CancelFind)
}

func CompleteFind(db *sqlx.DB, store database.SessionStore) http.HandlerFunc {
	return endFind(db, store, "completed", engine.CompleteFind)
}

func endFind(
	db *sqlx.DB,
	store database.SessionStore,
	action string,
	transition func(s models.FindSession, now time.Time) models.FindSession,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}
		session, ok := loadFindSession(w, r, store, group, claims.UserID)
		if !ok {
			return
		}

		updated := transition(session, time.Now())
		if err := store.SaveSession(r.Context(), updated); err != nil {
			log.Printf("❌ Failed to save find session %s: %v", updated.ID, err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save session")
			return
		}

		log.Printf("🔍 Find session %s %s by %s", updated.ID, action, claims.UserID)
		utils.RespondData(w, http.StatusOK, updated)
	}
}
