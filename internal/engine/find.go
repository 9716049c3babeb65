package engine

import (
	"time"

	"github.com/google/uuid"

	"hither-backend/internal/models"
)

// FindLivenessTimeout ends a find session once the target's location has
// been stale for this long. This is a liveness check on the target's
// reporting, not an absolute session cap.
const FindLivenessTimeout = 120 * time.Second

// StartFind opens a proximity-finding session between two members. The
// target must have a last known location, and both sides must be current
// members of the group.
func StartFind(g models.Group, requesterID, targetID string, now time.Time) (models.FindSession, error) {
	if requesterID == targetID {
		return models.FindSession{}, ErrInvalidInput
	}
	requester := g.FindMember(requesterID)
	target := g.FindMember(targetID)
	if requester == nil || target == nil {
		return models.FindSession{}, ErrNotFound
	}
	if target.Location() == nil {
		return models.FindSession{}, ErrInvalidInput
	}

	return models.FindSession{
		ID:          uuid.New().String(),
		GroupID:     g.ID,
		RequesterID: requesterID,
		TargetID:    targetID,
		State:       models.FindActive,
		CreatedAt:   now.Unix(),
		UpdatedAt:   now.Unix(),
	}, nil
}

// Heartbeat re-evaluates an active session against current group state.
// The session is cancelled when either member has left the group, and times
// out once the target's location age exceeds the liveness window.
func Heartbeat(g models.Group, s models.FindSession, now time.Time) models.FindSession {
	if s.State.Terminal() {
		return s
	}

	requester := g.FindMember(s.RequesterID)
	target := g.FindMember(s.TargetID)
	if requester == nil || target == nil {
		s.State = models.FindCancelled
		s.UpdatedAt = now.Unix()
		return s
	}

	if target.LastLocationUpdate == nil ||
		now.Sub(time.Unix(*target.LastLocationUpdate, 0)) > FindLivenessTimeout {
		s.State = models.FindTimedOut
		s.UpdatedAt = now.Unix()
		return s
	}

	s.UpdatedAt = now.Unix()
	return s
}

// CancelFind ends a session at the requester's or target's request.
func CancelFind(s models.FindSession, now time.Time) models.FindSession {
	if s.State.Terminal() {
		return s
	}
	s.State = models.FindCancelled
	s.UpdatedAt = now.Unix()
	return s
}

// CompleteFind marks a session as successfully concluded (members reunited).
func CompleteFind(s models.FindSession, now time.Time) models.FindSession {
	if s.State.Terminal() {
		return s
	}
	s.State = models.FindCompleted
	s.UpdatedAt = now.Unix()
	return s
}
