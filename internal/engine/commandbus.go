package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"hither-backend/internal/models"
)

// CustomMessageSoftLimit is advisory only; longer messages get a warning,
// never a rejection.
const CustomMessageSoftLimit = 200

// Notification is the push payload produced by a command send. The engine
// never dispatches it; the host layer resolves recipient tokens and calls FCM.
type Notification struct {
	RecipientUserIDs []string          `json:"recipient_user_ids"`
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	Data             map[string]string `json:"data"`
}

// SendCommand validates, timestamps and authorizes a directive or request.
// Leader directives require the sender to be the leader; follower requests
// require a non-leader member. The returned notification is addressed to all
// other current members.
func SendCommand(g models.Group, senderID string, t models.CommandType, message string, loc *models.GeoPoint, now time.Time) (models.Command, Notification, error) {
	if !t.Valid() {
		return models.Command{}, Notification{}, ErrInvalidInput
	}

	sender := g.FindMember(senderID)
	if sender == nil {
		return models.Command{}, Notification{}, ErrUnauthorized
	}
	switch {
	case t.IsLeaderOnly():
		if !IsLeader(g, senderID) {
			return models.Command{}, Notification{}, ErrUnauthorized
		}
	case t.IsFollowerRequest():
		if IsLeader(g, senderID) {
			return models.Command{}, Notification{}, ErrUnauthorized
		}
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = t.DefaultMessage()
	}

	senderName := sender.DisplayName
	if sender.Nickname != nil && *sender.Nickname != "" {
		senderName = *sender.Nickname
	}

	cmd := models.Command{
		ID:         uuid.New().String(),
		GroupID:    g.ID,
		SenderID:   senderID,
		SenderName: senderName,
		Type:       t,
		Message:    message,
		Timestamp:  now.Unix(),
	}
	if loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		cmd.Latitude = &lat
		cmd.Longitude = &lon
	}

	title := fmt.Sprintf("%s sent a command", senderName)
	if t == models.CommandCustom {
		title = fmt.Sprintf("%s sent a message", senderName)
	}

	note := Notification{
		RecipientUserIDs: g.MemberUserIDs(senderID),
		Title:            title,
		Body:             message,
		Data: map[string]string{
			"type":       string(t),
			"group_id":   g.ID,
			"command_id": cmd.ID,
		},
	}

	return cmd, note, nil
}

// CustomMessageWarning returns a non-empty warning string when a custom
// message exceeds the soft limit. The limit counts characters, not bytes, so
// multibyte text is not penalized.
func CustomMessageWarning(message string) string {
	if n := utf8.RuneCountInString(message); n > CustomMessageSoftLimit {
		return fmt.Sprintf("message is %d characters, consider keeping it under %d", n, CustomMessageSoftLimit)
	}
	return ""
}

// ApplyRemoteCommand merges a command delivered by the remote store into the
// local log. Inserting an id that already exists is a no-op, so duplicate
// delivery is safe. The result is re-sorted by (timestamp, id).
func ApplyRemoteCommand(log []models.Command, cmd models.Command) []models.Command {
	for _, existing := range log {
		if existing.ID == cmd.ID {
			return log
		}
	}
	out := make([]models.Command, len(log), len(log)+1)
	copy(out, log)
	out = append(out, cmd)
	SortCommands(out)
	return out
}

// SortCommands orders a log by its total ordering key (timestamp, id).
func SortCommands(log []models.Command) {
	sort.Slice(log, func(i, j int) bool {
		if log[i].Timestamp != log[j].Timestamp {
			return log[i].Timestamp < log[j].Timestamp
		}
		return log[i].ID < log[j].ID
	})
}

// RecentCommands returns a most-recent-first view capped at limit.
// A limit <= 0 returns the full history.
func RecentCommands(log []models.Command, limit int) []models.Command {
	sorted := make([]models.Command, len(log))
	copy(sorted, log)
	SortCommands(sorted)

	// reverse to most-recent-first
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
