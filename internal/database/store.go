package database

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"hither-backend/internal/models"
)

// Aggregate load/save helpers. Aggregates are loaded whole (group row +
// member rows, itinerary row + waypoint rows) and written back after each
// successful engine mutation.

func GetGroup(db *sqlx.DB, id string) (models.Group, error) {
	var g models.Group
	if err := db.Get(&g, `SELECT * FROM groups WHERE id = $1`, id); err != nil {
		return models.Group{}, err
	}
	if err := db.Select(&g.Members, `SELECT * FROM members WHERE group_id = $1 ORDER BY joined_at, id`, id); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func GetGroupByInviteCode(db *sqlx.DB, code string) (models.Group, error) {
	var g models.Group
	query := `SELECT * FROM groups WHERE invite_code = $1 AND is_active = TRUE ORDER BY created_at DESC LIMIT 1`
	if err := db.Get(&g, query, code); err != nil {
		return models.Group{}, err
	}
	return GetGroup(db, g.ID)
}

// GroupsForUser returns the active groups the user is currently a member of.
func GroupsForUser(db *sqlx.DB, userID string) ([]models.Group, error) {
	var ids []string
	query := `SELECT g.id FROM groups g
			  JOIN members m ON m.group_id = g.id
			  WHERE m.user_id = $1 AND g.is_active = TRUE
			  ORDER BY g.created_at DESC`
	if err := db.Select(&ids, query, userID); err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		g, err := GetGroup(db, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// SaveGroup writes the group aggregate back: upserts the group row, upserts
// every member, and deletes members no longer in the roster.
func SaveGroup(db *sqlx.DB, g models.Group) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO groups (id, name, leader_id, invite_code, invite_expires_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			leader_id = EXCLUDED.leader_id,
			invite_code = EXCLUDED.invite_code,
			invite_expires_at = EXCLUDED.invite_expires_at,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, g.ID, g.Name, g.LeaderID, g.InviteCode, g.InviteExpiresAt, g.IsActive, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving group row: %w", err)
	}

	memberIDs := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		memberIDs = append(memberIDs, m.ID)
		_, err = tx.Exec(`
			INSERT INTO members (id, group_id, user_id, display_name, nickname, avatar_emoji, role, joined_at, latitude, longitude, last_location_update)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				nickname = EXCLUDED.nickname,
				avatar_emoji = EXCLUDED.avatar_emoji,
				role = EXCLUDED.role,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				last_location_update = EXCLUDED.last_location_update
		`, m.ID, m.GroupID, m.UserID, m.DisplayName, m.Nickname, m.AvatarEmoji, m.Role, m.JoinedAt, m.Latitude, m.Longitude, m.LastLocationUpdate)
		if err != nil {
			return fmt.Errorf("saving member %s: %w", m.UserID, err)
		}
	}

	if len(memberIDs) == 0 {
		_, err = tx.Exec(`DELETE FROM members WHERE group_id = $1`, g.ID)
	} else {
		_, err = tx.Exec(`DELETE FROM members WHERE group_id = $1 AND id <> ALL($2)`, g.ID, pq.Array(memberIDs))
	}
	if err != nil {
		return fmt.Errorf("pruning members: %w", err)
	}

	return tx.Commit()
}

func CreateItinerary(db *sqlx.DB, it models.GroupItinerary) error {
	_, err := db.Exec(`
		INSERT INTO itineraries (id, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id) DO NOTHING
	`, it.ID, it.GroupID, it.CreatedAt, it.UpdatedAt)
	return err
}

func GetItinerary(db *sqlx.DB, groupID string) (models.GroupItinerary, error) {
	var it models.GroupItinerary
	if err := db.Get(&it, `SELECT * FROM itineraries WHERE group_id = $1`, groupID); err != nil {
		return models.GroupItinerary{}, err
	}
	if err := db.Select(&it.Waypoints, `SELECT * FROM waypoints WHERE group_id = $1 ORDER BY sequence_order, created_at`, groupID); err != nil {
		return models.GroupItinerary{}, err
	}
	return it, nil
}

// SaveItinerary upserts the itinerary and its waypoints. Waypoint conflicts
// resolve last-writer-wins on updated_at, matching the engine's remote-merge
// rule, so two devices writing concurrently converge on the later write.
func SaveItinerary(db *sqlx.DB, it models.GroupItinerary) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE itineraries SET updated_at = $2 WHERE id = $1
	`, it.ID, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving itinerary row: %w", err)
	}

	for _, w := range it.Waypoints {
		_, err = tx.Exec(`
			INSERT INTO waypoints (id, group_id, name, description, type, latitude, longitude, created_by, is_active, is_completed, is_in_progress, sequence_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				type = EXCLUDED.type,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				is_active = EXCLUDED.is_active,
				is_completed = EXCLUDED.is_completed,
				is_in_progress = EXCLUDED.is_in_progress,
				sequence_order = EXCLUDED.sequence_order,
				updated_at = EXCLUDED.updated_at
			WHERE waypoints.updated_at <= EXCLUDED.updated_at
		`, w.ID, w.GroupID, w.Name, w.Description, w.Type, w.Latitude, w.Longitude, w.CreatedBy, w.IsActive, w.IsCompleted, w.IsInProgress, w.Order, w.CreatedAt, w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("saving waypoint %s: %w", w.ID, err)
		}
	}

	return tx.Commit()
}

// InsertCommand appends to the command log. Duplicate delivery of the same
// command id is a no-op, mirroring the engine's idempotent remote apply.
func InsertCommand(db *sqlx.DB, cmd models.Command) error {
	_, err := db.Exec(`
		INSERT INTO commands (id, group_id, sender_id, sender_name, type, message, timestamp, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, cmd.ID, cmd.GroupID, cmd.SenderID, cmd.SenderName, cmd.Type, cmd.Message, cmd.Timestamp, cmd.Latitude, cmd.Longitude)
	return err
}

// GetCommands returns the group's command log most-recent-first. A limit of
// 0 or less returns the full history.
func GetCommands(db *sqlx.DB, groupID string, limit int) ([]models.Command, error) {
	commands := []models.Command{}
	query := `SELECT * FROM commands WHERE group_id = $1 ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if err := db.Select(&commands, query, groupID); err != nil {
		return nil, err
	}
	return commands, nil
}

// User account helpers

func CreateUser(db *sqlx.DB, u models.User) error {
	_, err := db.Exec(`
		INSERT INTO users (id, email, password, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.Password, u.Name, u.CreatedAt, u.UpdatedAt)
	return err
}

func GetUserByEmail(db *sqlx.DB, email string) (models.User, error) {
	var u models.User
	err := db.Get(&u, `SELECT * FROM users WHERE email = $1`, email)
	return u, err
}

func GetUserByID(db *sqlx.DB, id string) (models.User, error) {
	var u models.User
	err := db.Get(&u, `SELECT * FROM users WHERE id = $1`, id)
	return u, err
}

func SetFCMToken(db *sqlx.DB, userID, token string) error {
	res, err := db.Exec(`
		UPDATE users SET fcm_token = $2, updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT WHERE id = $1
	`, userID, token)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FCMTokensForUsers resolves push tokens for a set of userIDs, skipping
// users who never registered a device.
func FCMTokensForUsers(db *sqlx.DB, userIDs []string) ([]string, error) {
	tokens := []string{}
	if len(userIDs) == 0 {
		return tokens, nil
	}
	query := `SELECT fcm_token FROM users WHERE id = ANY($1) AND fcm_token IS NOT NULL`
	if err := db.Select(&tokens, query, pq.Array(userIDs)); err != nil {
		return nil, err
	}
	return tokens, nil
}
