package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("🔌 Connecting to Postgres...")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ sqlx.Connect failed: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("❌ Ping failed: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table (account identity; group roles live on members)
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			fcm_token TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create groups table
		`CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			leader_id TEXT NOT NULL,
			invite_code TEXT NOT NULL,
			invite_expires_at BIGINT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create members table (one row per user per group)
		`CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			nickname TEXT,
			avatar_emoji TEXT,
			role TEXT NOT NULL CHECK(role IN ('leader', 'follower')),
			joined_at BIGINT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			last_location_update BIGINT,
			FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE,
			UNIQUE (group_id, user_id)
		)`,

		// Create itineraries table (1:1 with groups)
		`CREATE TABLE IF NOT EXISTS itineraries (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL UNIQUE,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
		)`,

		// Create waypoints table
		`CREATE TABLE IF NOT EXISTS waypoints (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			type TEXT NOT NULL CHECK(type IN ('meeting_point', 'rest_stop', 'lunch', 'destination', 'checkpoint', 'emergency', 'custom')),
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			created_by TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			is_in_progress BOOLEAN NOT NULL DEFAULT FALSE,
			sequence_order INT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
		)`,

		// Create commands table (append-only log)
		`CREATE TABLE IF NOT EXISTS commands (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_invite_code ON groups(invite_code)`,
		`CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_waypoints_group_id ON waypoints(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_waypoints_group_order ON waypoints(group_id, sequence_order)`,
		`CREATE INDEX IF NOT EXISTS idx_commands_group_id ON commands(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_commands_group_ts ON commands(group_id, timestamp, id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("✅ %d migrations applied", len(migrations))
	return nil
}
