package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"hither-backend/internal/database"
	"hither-backend/internal/middleware"
	"hither-backend/internal/models"
	"hither-backend/pkg/utils"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK    bool                 `json:"ok"`
	Token string               `json:"token,omitempty"`
	User  *models.UserResponse `json:"user,omitempty"`
}

func issueToken(user models.User) (string, error) {
	jwtSecret := os.Getenv("APP_JWT_SECRET")
	if jwtSecret == "" {
		return "", errors.New("APP_JWT_SECRET not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(jwtSecret))
}

func Register(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Name = strings.TrimSpace(req.Name)
		if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
			utils.RespondError(w, http.StatusBadRequest, "email, name and a password of at least 8 characters are required")
			return
		}

		if _, err := database.GetUserByEmail(db, req.Email); err == nil {
			utils.RespondError(w, http.StatusConflict, "email already registered")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			utils.RespondError(w, http.StatusInternalServerError, "database error")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}

		now := time.Now().Unix()
		user := models.User{
			ID:        uuid.New().String(),
			Email:     req.Email,
			Password:  string(hash),
			Name:      req.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := database.CreateUser(db, user); err != nil {
			log.Printf("❌ Failed to create user %s: %v", req.Email, err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to create user")
			return
		}

		tokenString, err := issueToken(user)
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to create token")
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Registered: %s", user.Email)
		utils.RespondJSON(w, http.StatusCreated, LoginResponse{
			OK:    true,
			Token: tokenString,
			User:  &userResponse,
		})
	}
}

func Login(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		log.Printf("🔐 Login attempt for: %s", req.Email)

		user, err := database.GetUserByEmail(db, strings.TrimSpace(strings.ToLower(req.Email)))
		if err != nil {
			log.Printf("❌ User not found: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Printf("❌ Invalid password for: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		tokenString, err := issueToken(user)
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to create token")
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Login successful: %s", user.Email)
		utils.RespondJSON(w, http.StatusOK, LoginResponse{
			OK:    true,
			Token: tokenString,
			User:  &userResponse,
		})
	}
}

// GetAuthStatus echoes the authenticated user back, for clients validating a
// stored token on launch.
func GetAuthStatus(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := database.GetUserByID(db, claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		utils.RespondData(w, http.StatusOK, user.ToUserResponse())
	}
}
