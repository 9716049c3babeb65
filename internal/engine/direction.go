package engine

import (
	"fmt"

	"hither-backend/internal/geo"
	"hither-backend/internal/models"
)

// BearingToLeader returns the initial bearing from a follower to the leader,
// or false when either location is unknown. Recomputed on every position
// update, never cached.
func BearingToLeader(g models.Group, followerUserID string) (float64, bool) {
	follower := g.FindMember(followerUserID)
	leader := g.Leader()
	if follower == nil || leader == nil {
		return 0, false
	}
	from := follower.Location()
	to := leader.Location()
	if from == nil || to == nil {
		return 0, false
	}
	return geo.BearingDegrees(*from, *to), true
}

// DistanceAndDescription returns the distance between two points in meters
// plus a human-readable rendering: meters below 1 km, otherwise kilometers
// to one decimal.
func DistanceAndDescription(a, b models.GeoPoint) (float64, string) {
	meters := geo.DistanceMeters(a, b)
	return meters, FormatDistance(meters)
}

// FormatDistance renders a distance for display.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// RouteProgress maps a total/remaining leg distance pair to [0, 100].
func RouteProgress(total, remaining float64) float64 {
	return geo.ProgressPercentage(total, remaining)
}
