package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/middleware"
	"hither-backend/pkg/utils"
)

type registerTokenRequest struct {
	Token string `json:"token"`
}

// RegisterFCMToken stores the caller's current device push token. One token
// per user; a new device overwrites the old one.
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req registerTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "token is required")
			return
		}

		if err := database.SetFCMToken(db, claims.UserID, req.Token); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusNotFound, "user not found")
				return
			}
			log.Printf("❌ Failed to save FCM token for %s: %v", claims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to save token")
			return
		}

		utils.RespondData(w, http.StatusOK, map[string]interface{}{"registered": true})
	}
}
