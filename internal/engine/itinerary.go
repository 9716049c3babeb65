package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"hither-backend/internal/models"
)

// Waypoint state machine:
//
//	Planned -> InProgress -> Completed (terminal)
//	Planned | InProgress -> Removed (soft delete via IsActive=false)
//
// At most one waypoint per group is InProgress at any time.

// NewItinerary creates the empty itinerary that accompanies a new group.
func NewItinerary(groupID string, now time.Time) models.GroupItinerary {
	return models.GroupItinerary{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}
}

// AddWaypoint appends a stop. Any current member may add; CreatedBy is an
// audit field, not an authorization gate. Unspecified order lands after the
// last active waypoint; an explicit order must be positive and not collide
// with any active waypoint's order.
func AddWaypoint(g models.Group, it models.GroupItinerary, req models.AddWaypointRequest, createdBy string, now time.Time) (models.GroupItinerary, models.Waypoint, error) {
	if g.FindMember(createdBy) == nil {
		return it, models.Waypoint{}, ErrUnauthorized
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Type.Valid() {
		return it, models.Waypoint{}, ErrInvalidInput
	}
	loc := models.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude}
	if !loc.InBounds() {
		return it, models.Waypoint{}, ErrOutOfRange
	}

	order := 0
	if req.Order != nil {
		// explicit orders must keep active order values distinct
		order = *req.Order
		if order < 1 {
			return it, models.Waypoint{}, ErrInvalidInput
		}
		for _, w := range it.ActiveWaypoints() {
			if w.Order == order {
				return it, models.Waypoint{}, ErrInvalidInput
			}
		}
	} else {
		for _, w := range it.ActiveWaypoints() {
			if w.Order >= order {
				order = w.Order + 1
			}
		}
		if order == 0 {
			order = 1
		}
	}

	wp := models.Waypoint{
		ID:          uuid.New().String(),
		GroupID:     g.ID,
		Name:        name,
		Description: req.Description,
		Type:        req.Type,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CreatedBy:   createdBy,
		IsActive:    true,
		Order:       order,
		CreatedAt:   now.Unix(),
		UpdatedAt:   now.Unix(),
	}

	out := cloneItinerary(it)
	out.Waypoints = append(out.Waypoints, wp)
	out.UpdatedAt = now.Unix()
	return out, wp, nil
}

// StartProgress marks a waypoint as the one the group is heading to. Fails
// if another waypoint is already in progress; the leader must stop it first,
// there is no auto-preemption.
func StartProgress(g models.Group, it models.GroupItinerary, waypointID, actingUserID string, now time.Time) (models.GroupItinerary, error) {
	if !IsLeader(g, actingUserID) {
		return it, ErrUnauthorized
	}

	out := cloneItinerary(it)
	target := out.FindWaypoint(waypointID)
	if target == nil || !target.IsActive {
		return it, ErrNotFound
	}
	if target.IsCompleted {
		return it, ErrInvalidInput
	}
	if current := out.CurrentWaypoint(); current != nil && current.ID != waypointID {
		return it, ErrAlreadyInProgress
	}

	target.IsInProgress = true
	target.UpdatedAt = now.Unix()
	out.UpdatedAt = now.Unix()
	return out, nil
}

// StopProgress clears the in-progress flag without completing the waypoint.
func StopProgress(g models.Group, it models.GroupItinerary, waypointID, actingUserID string, now time.Time) (models.GroupItinerary, error) {
	if !IsLeader(g, actingUserID) {
		return it, ErrUnauthorized
	}

	out := cloneItinerary(it)
	target := out.FindWaypoint(waypointID)
	if target == nil || !target.IsActive {
		return it, ErrNotFound
	}

	target.IsInProgress = false
	target.UpdatedAt = now.Unix()
	out.UpdatedAt = now.Unix()
	return out, nil
}

// MarkCompleted transitions a waypoint to its terminal state.
func MarkCompleted(g models.Group, it models.GroupItinerary, waypointID, actingUserID string, now time.Time) (models.GroupItinerary, error) {
	if !IsLeader(g, actingUserID) {
		return it, ErrUnauthorized
	}

	out := cloneItinerary(it)
	target := out.FindWaypoint(waypointID)
	if target == nil || !target.IsActive {
		return it, ErrNotFound
	}

	target.IsCompleted = true
	target.IsInProgress = false
	target.UpdatedAt = now.Unix()
	out.UpdatedAt = now.Unix()
	return out, nil
}

// RemoveWaypoint soft-deletes a waypoint. Sibling order values are not
// renumbered; gaps are acceptable.
func RemoveWaypoint(g models.Group, it models.GroupItinerary, waypointID, actingUserID string, now time.Time) (models.GroupItinerary, error) {
	if !IsLeader(g, actingUserID) {
		return it, ErrUnauthorized
	}

	out := cloneItinerary(it)
	target := out.FindWaypoint(waypointID)
	if target == nil || !target.IsActive {
		return it, ErrNotFound
	}

	target.IsActive = false
	target.IsInProgress = false
	target.UpdatedAt = now.Unix()
	out.UpdatedAt = now.Unix()
	return out, nil
}

// Reorder reassigns order 1..N over the given sequence of upcoming waypoint
// ids. The in-progress waypoint stays pinned at order 0 ahead of the list; it
// may appear in the submitted ids but is skipped when numbering. The ids must
// cover the remaining active, non-completed waypoints exactly, otherwise the
// reorder is inconsistent.
func Reorder(g models.Group, it models.GroupItinerary, waypointIDs []string, actingUserID string, now time.Time) (models.GroupItinerary, error) {
	if !IsLeader(g, actingUserID) {
		return it, ErrUnauthorized
	}

	out := cloneItinerary(it)

	active := make(map[string]bool)
	upcoming := 0
	for _, w := range out.ActiveWaypoints() {
		active[w.ID] = true
		if !w.IsInProgress {
			upcoming++
		}
	}

	seen := make(map[string]bool)
	sequence := make([]string, 0, len(waypointIDs))
	for _, id := range waypointIDs {
		if !active[id] || seen[id] {
			return it, ErrInconsistentReorder
		}
		seen[id] = true
		// the in-progress waypoint stays pinned at order 0 even when the
		// client includes it in the submitted list
		if wp := out.FindWaypoint(id); !wp.IsInProgress {
			sequence = append(sequence, id)
		}
	}
	if len(sequence) != upcoming {
		return it, ErrInconsistentReorder
	}

	if current := out.CurrentWaypoint(); current != nil {
		wp := out.FindWaypoint(current.ID)
		if wp.Order != 0 {
			wp.Order = 0
			wp.UpdatedAt = now.Unix()
		}
	}
	for i, id := range sequence {
		wp := out.FindWaypoint(id)
		if wp.Order != i+1 {
			wp.Order = i + 1
			wp.UpdatedAt = now.Unix()
		}
	}
	out.UpdatedAt = now.Unix()
	return out, nil
}

// ApplyRemoteWaypoint merges a waypoint row delivered by the remote store.
// Conflicts resolve last-writer-wins by UpdatedAt; equal timestamps keep the
// local copy. New ids are appended.
func ApplyRemoteWaypoint(it models.GroupItinerary, wp models.Waypoint) models.GroupItinerary {
	out := cloneItinerary(it)
	existing := out.FindWaypoint(wp.ID)
	if existing == nil {
		out.Waypoints = append(out.Waypoints, wp)
		return out
	}
	if wp.UpdatedAt > existing.UpdatedAt {
		*existing = wp
	}
	return out
}

func cloneItinerary(it models.GroupItinerary) models.GroupItinerary {
	out := it
	out.Waypoints = make([]models.Waypoint, len(it.Waypoints))
	copy(out.Waypoints, it.Waypoints)
	return out
}
