package engine

import (
	"time"

	"hither-backend/internal/geo"
	"hither-backend/internal/models"
)

// UpdateLocation ingests a member's own location sample. Out-of-order
// deliveries (at older than the stored last update) are dropped as stale
// writes; the caller logs them and returns the group unchanged to the user.
func UpdateLocation(g models.Group, userID string, p models.GeoPoint, at time.Time) (models.Group, error) {
	if !p.InBounds() {
		return g, ErrOutOfRange
	}
	m := g.FindMember(userID)
	if m == nil {
		return g, ErrNotFound
	}
	if m.LastLocationUpdate != nil && at.Unix() < *m.LastLocationUpdate {
		return g, ErrStaleWrite
	}

	out := cloneGroup(g)
	out.FindMember(userID).SetLocation(p, at.Unix())
	return out, nil
}

// OnlineMemberCount counts members whose last location report falls inside
// the dashboard online window (5 minutes, distinct from the 1-minute live
// indicator threshold).
func OnlineMemberCount(g models.Group, now time.Time) int {
	count := 0
	for _, m := range g.Members {
		if m.LastLocationUpdate == nil {
			continue
		}
		if now.Sub(time.Unix(*m.LastLocationUpdate, 0)) < geo.OnlineWindow {
			count++
		}
	}
	return count
}

// MemberStaleness classifies every member's location freshness for the
// roster view.
func MemberStaleness(g models.Group, now time.Time) []models.MemberStatus {
	out := make([]models.MemberStatus, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, models.MemberStatus{
			Member:    m,
			Staleness: string(geo.ClassifyStalenessUnix(m.LastLocationUpdate, now)),
		})
	}
	return out
}
