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
	"hither-backend/internal/middleware"
	"hither-backend/internal/models"
	"hither-backend/internal/services"
	"hither-backend/internal/websocket"
	"hither-backend/pkg/utils"
)

// loadGroupForMember resolves the {id} path param to a group and checks the
// caller is a member. Writes the error response itself on failure.
func loadGroupForMember(w http.ResponseWriter, r *http.Request, db *sqlx.DB) (models.Group, middleware.UserClaims, bool) {
	claims, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return models.Group{}, middleware.UserClaims{}, false
	}

	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		utils.RespondError(w, http.StatusBadRequest, "group id is required")
		return models.Group{}, middleware.UserClaims{}, false
	}

	group, err := database.GetGroup(db, groupID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "group not found")
		return models.Group{}, middleware.UserClaims{}, false
	}
	if group.FindMember(claims.UserID) == nil {
		utils.RespondError(w, http.StatusForbidden, "not a member of this group")
		return models.Group{}, middleware.UserClaims{}, false
	}
	return group, claims, true
}

func CreateGroup(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.CreateGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		now := time.Now()
		group, err := engine.CreateGroup(req.Name, claims.UserID, claims.Name, now)
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveGroup(db, group); err != nil {
			log.Printf("❌ Failed to save group: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save group")
			return
		}

		// Every group owns exactly one itinerary, created alongside it
		itinerary := engine.NewItinerary(group.ID, now)
		if err := database.CreateItinerary(db, itinerary); err != nil {
			log.Printf("❌ Failed to create itinerary for group %s: %v", group.ID, err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to create itinerary")
			return
		}

		log.Printf("✅ Group created: %s (%s) by %s", group.Name, group.ID, claims.UserID)
		utils.RespondData(w, http.StatusCreated, group)
	}
}

func GetGroup(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, _, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}
		utils.RespondData(w, http.StatusOK, group)
	}
}

// GetMyGroups lists the active groups the caller belongs to.
func GetMyGroups(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		groups, err := database.GroupsForUser(db, claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to fetch groups")
			return
		}
		utils.RespondData(w, http.StatusOK, groups)
	}
}

func JoinGroup(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.JoinGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		group, err := database.GetGroupByInviteCode(db, req.InviteCode)
		if err != nil {
			respondEngineError(w, engine.ErrInvalidInvite)
			return
		}

		wasMember := group.FindMember(claims.UserID) != nil

		updated, err := engine.Join(group, req.InviteCode, claims.UserID, claims.Name, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveGroup(db, updated); err != nil {
			log.Printf("❌ Failed to save group after join: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to join group")
			return
		}

		if !wasMember {
			log.Printf("✅ %s joined group %s", claims.UserID, updated.ID)
			others := updated.MemberUserIDs(claims.UserID)
			hub.BroadcastToUsers(others, websocket.Event{
				Type: websocket.EventGroupUpdated,
				Data: updated,
			})
			if fcm != nil {
				tokens, err := database.FCMTokensForUsers(db, others)
				if err != nil {
					log.Printf("⚠️ Failed to resolve FCM tokens: %v", err)
				} else if err := fcm.SendMemberJoinedNotification(tokens, updated.Name, claims.Name); err != nil {
					log.Printf("⚠️ Failed to send join notification: %v", err)
				}
			}
		}

		utils.RespondData(w, http.StatusOK, updated)
	}
}

func LeaveGroup(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		updated, err := engine.Leave(group, claims.UserID, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveGroup(db, updated); err != nil {
			log.Printf("❌ Failed to save group after leave: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to leave group")
			return
		}

		log.Printf("👋 %s left group %s", claims.UserID, updated.ID)
		hub.BroadcastToUsers(updated.MemberUserIDs(claims.UserID), websocket.Event{
			Type: websocket.EventGroupUpdated,
			Data: updated,
		})
		utils.RespondData(w, http.StatusOK, map[string]interface{}{"left": true})
	}
}

// GetInvite returns the current invite code with its expiry plus share links.
func GetInvite(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, _, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		links := services.BuildInviteLinks(group.InviteCode, group.Name)
		utils.RespondData(w, http.StatusOK, map[string]interface{}{
			"invite_code":       group.InviteCode,
			"invite_expires_at": group.InviteExpiresAt,
			"deep_link":         links.DeepLink,
			"web_link":          links.WebLink,
		})
	}
}

// RotateInvite issues a fresh invite code, invalidating the old one.
func RotateInvite(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		updated, err := engine.RotateInviteCode(group, claims.UserID, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveGroup(db, updated); err != nil {
			log.Printf("❌ Failed to save rotated invite: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to rotate invite")
			return
		}

		log.Printf("🔄 Invite rotated for group %s", updated.ID)
		hub.BroadcastToUsers(updated.MemberUserIDs(claims.UserID), websocket.Event{
			Type: websocket.EventGroupUpdated,
			Data: updated,
		})

		links := services.BuildInviteLinks(updated.InviteCode, updated.Name)
		utils.RespondData(w, http.StatusOK, map[string]interface{}{
			"invite_code":       updated.InviteCode,
			"invite_expires_at": updated.InviteExpiresAt,
			"deep_link":         links.DeepLink,
			"web_link":          links.WebLink,
		})
	}
}

// UpdateMyProfile lets a member change their own nickname and avatar.
func UpdateMyProfile(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var req models.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		updated, err := engine.UpdateMemberProfile(group, claims.UserID, claims.UserID, req.Nickname, req.AvatarEmoji, time.Now())
		if err != nil {
			respondEngineError(w, err)
			return
		}
		if err := database.SaveGroup(db, updated); err != nil {
			log.Printf("❌ Failed to save profile update: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}

		hub.BroadcastToUsers(updated.MemberUserIDs(claims.UserID), websocket.Event{
			Type: websocket.EventGroupUpdated,
			Data: updated,
		})
		utils.RespondData(w, http.StatusOK, updated.FindMember(claims.UserID))
	}
}
