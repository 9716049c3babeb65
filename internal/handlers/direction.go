package handlers

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"hither-backend/internal/database"
	"hither-backend/internal/engine"
	"hither-backend/internal/models"
	"hither-backend/pkg/utils"
)

type directionResponse struct {
	Bearing        *float64 `json:"bearing,omitempty"` // Degrees clockwise from north
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	DistanceText   string   `json:"distance_text,omitempty"`
	RouteProgress  *float64 `json:"route_progress,omitempty"` // Percent toward current waypoint
}

// GetDirection computes the caller's bearing and distance to the leader, plus
// progress toward the current waypoint when one is underway. Fields are
// omitted rather than guessed when locations are missing.
func GetDirection(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, claims, ok := loadGroupForMember(w, r, db)
		if !ok {
			return
		}

		var resp directionResponse

		member := group.FindMember(claims.UserID)
		memberLoc := member.Location()

		if bearing, ok := engine.BearingToLeader(group, claims.UserID); ok {
			b := bearing
			resp.Bearing = &b
		}
		if leader := group.Leader(); leader != nil && memberLoc != nil {
			if leaderLoc := leader.Location(); leaderLoc != nil {
				meters, text := engine.DistanceAndDescription(*memberLoc, *leaderLoc)
				resp.DistanceMeters = &meters
				resp.DistanceText = text
			}
		}

		// Progress is anchored on the leg from the last completed waypoint to
		// the one in progress; without both anchors there is no leg to measure.
		if memberLoc != nil {
			if it, err := database.GetItinerary(db, group.ID); err == nil {
				if progress := legProgress(&it, *memberLoc); progress != nil {
					resp.RouteProgress = progress
				}
			}
		}

		utils.RespondData(w, http.StatusOK, resp)
	}
}

func legProgress(it *models.GroupItinerary, at models.GeoPoint) *float64 {
	current := it.CurrentWaypoint()
	if current == nil {
		return nil
	}
	completed := it.CompletedWaypoints()
	if len(completed) == 0 {
		return nil
	}
	from := completed[len(completed)-1].Location()

	total, _ := engine.DistanceAndDescription(from, current.Location())
	remaining, _ := engine.DistanceAndDescription(at, current.Location())
	p := engine.RouteProgress(total, remaining)
	return &p
}
