// Package engine is the group coordination and itinerary state engine.
//
// Every mutating function takes the current aggregate by value and returns a
// new one; nothing here performs I/O. The caller persists the result, fans it
// out over WebSocket, and dispatches any returned notification payload. Remote
// changes are applied through the same functions (or the dedicated idempotent
// apply paths), so duplicate delivery is harmless.
package engine

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"hither-backend/internal/models"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	InviteCodeLength   = 6
	InviteTTL          = 24 * time.Hour
)

// NewInviteCode draws a fresh 6-char code from [A-Z0-9]. Codes are not
// checked for cross-group uniqueness; the 24h expiry and 36^6 space make
// collisions acceptable.
func NewInviteCode() string {
	var b strings.Builder
	b.Grow(InviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform entropy source is broken
			panic(err)
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String()
}

// CreateGroup seeds a new group with the creator as its single leader member.
func CreateGroup(name, leaderUserID, leaderName string, now time.Time) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, ErrInvalidInput
	}
	if leaderUserID == "" {
		return models.Group{}, ErrInvalidInput
	}

	groupID := uuid.New().String()
	leader := models.Member{
		ID:          uuid.New().String(),
		GroupID:     groupID,
		UserID:      leaderUserID,
		DisplayName: leaderName,
		Role:        models.RoleLeader,
		JoinedAt:    now.Unix(),
	}

	return models.Group{
		ID:              groupID,
		Name:            name,
		LeaderID:        leaderUserID,
		InviteCode:      NewInviteCode(),
		InviteExpiresAt: now.Add(InviteTTL).Unix(),
		IsActive:        true,
		CreatedAt:       now.Unix(),
		UpdatedAt:       now.Unix(),
		Members:         []models.Member{leader},
	}, nil
}

// RotateInviteCode replaces the invite code and resets its expiry. The old
// code becomes invalid for new joins immediately; already-joined members are
// unaffected. Leader only.
func RotateInviteCode(g models.Group, actingUserID string, now time.Time) (models.Group, error) {
	if !IsLeader(g, actingUserID) {
		return g, ErrUnauthorized
	}
	out := cloneGroup(g)
	out.InviteCode = NewInviteCode()
	out.InviteExpiresAt = now.Add(InviteTTL).Unix()
	out.UpdatedAt = now.Unix()
	return out, nil
}

// Join adds a follower to the group. Joining twice with the same userID is a
// no-op returning the unchanged group.
func Join(g models.Group, inviteCode, userID, userName string, now time.Time) (models.Group, error) {
	if g.FindMember(userID) != nil {
		return g, nil
	}
	if now.Unix() > g.InviteExpiresAt {
		return g, ErrExpiredInvite
	}
	if !strings.EqualFold(inviteCode, g.InviteCode) {
		return g, ErrInvalidInvite
	}

	out := cloneGroup(g)
	out.Members = append(out.Members, models.Member{
		ID:          uuid.New().String(),
		GroupID:     g.ID,
		UserID:      userID,
		DisplayName: userName,
		Role:        models.RoleFollower,
		JoinedAt:    now.Unix(),
	})
	out.UpdatedAt = now.Unix()
	return out, nil
}

// Leave removes a member. The leader cannot leave while followers remain;
// removing the last member deactivates the group.
func Leave(g models.Group, userID string, now time.Time) (models.Group, error) {
	m := g.FindMember(userID)
	if m == nil {
		return g, ErrNotFound
	}
	if m.Role == models.RoleLeader && len(g.Members) > 1 {
		return g, ErrLeaderCannotLeave
	}

	out := cloneGroup(g)
	members := out.Members[:0]
	for _, existing := range out.Members {
		if existing.UserID != userID {
			members = append(members, existing)
		}
	}
	out.Members = members
	if len(out.Members) == 0 {
		out.IsActive = false
	}
	out.UpdatedAt = now.Unix()
	return out, nil
}

// UpdateMemberProfile updates nickname/avatar for the acting member only.
// Touching another member's profile is Forbidden.
func UpdateMemberProfile(g models.Group, actingUserID, targetUserID string, nickname, avatarEmoji *string, now time.Time) (models.Group, error) {
	if actingUserID != targetUserID {
		return g, ErrForbidden
	}

	out := cloneGroup(g)
	m := out.FindMember(targetUserID)
	if m == nil {
		return g, ErrNotFound
	}
	if nickname != nil {
		m.Nickname = nickname
	}
	if avatarEmoji != nil {
		m.AvatarEmoji = avatarEmoji
	}
	out.UpdatedAt = now.Unix()
	return out, nil
}

// cloneGroup copies the aggregate so callers keep value semantics even
// though Members is a slice.
func cloneGroup(g models.Group) models.Group {
	out := g
	out.Members = make([]models.Member, len(g.Members))
	copy(out.Members, g.Members)
	return out
}
