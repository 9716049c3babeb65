package database

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"hither-backend/internal/models"
)

// SeedDemoUsers creates a handful of accounts for local development so the
// mobile app can log in against a fresh database. Guarded by SEED_DEMO=1;
// production databases are never seeded.
func SeedDemoUsers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Users already exist, skipping demo seed...")
		return nil
	}

	log.Println("🌱 Seeding demo users...")

	password, err := bcrypt.GenerateFromPassword([]byte("hither123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	demo := []struct {
		email string
		name  string
	}{
		{"aki@example.com", "Aki"},
		{"ben@example.com", "Ben"},
		{"cam@example.com", "Cam"},
	}

	now := time.Now().Unix()
	for _, d := range demo {
		u := models.User{
			ID:        uuid.New().String(),
			Email:     d.email,
			Password:  string(password),
			Name:      d.name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := CreateUser(db, u); err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d demo users (password: hither123)", len(demo))
	return nil
}
