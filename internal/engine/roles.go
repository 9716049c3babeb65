package engine

import "hither-backend/internal/models"

// IsLeader reports whether userID is the group's current leader.
func IsLeader(g models.Group, userID string) bool {
	return g.LeaderID == userID && g.FindMember(userID) != nil
}

// Authorize checks a role-gated operation. Leader-level operations require
// the acting user to be the leader; follower-level operations allow any
// current member. Violations surface as ErrUnauthorized at the call sites,
// never silently.
func Authorize(g models.Group, actingUserID string, required models.Role) bool {
	switch required {
	case models.RoleLeader:
		return IsLeader(g, actingUserID)
	case models.RoleFollower:
		return g.FindMember(actingUserID) != nil
	}
	return false
}
