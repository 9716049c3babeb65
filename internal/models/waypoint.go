package models

import "sort"

// WaypointType classifies a stop in the group itinerary
type WaypointType string

const (
	WaypointMeetingPoint WaypointType = "meeting_point"
	WaypointRestStop     WaypointType = "rest_stop"
	WaypointLunch        WaypointType = "lunch"
	WaypointDestination  WaypointType = "destination"
	WaypointCheckpoint   WaypointType = "checkpoint"
	WaypointEmergency    WaypointType = "emergency"
	WaypointCustom       WaypointType = "custom"
)

// Valid reports whether the type is a known waypoint type
func (t WaypointType) Valid() bool {
	switch t {
	case WaypointMeetingPoint, WaypointRestStop, WaypointLunch, WaypointDestination,
		WaypointCheckpoint, WaypointEmergency, WaypointCustom:
		return true
	}
	return false
}

// Waypoint is a named geolocated stop with ordering and progress state.
// Invariants: at most one waypoint per group is in progress; order values
// are distinct among active, non-completed waypoints; completed implies
// not in progress.
type Waypoint struct {
	ID           string       `json:"id" db:"id"`
	GroupID      string       `json:"group_id" db:"group_id"`
	Name         string       `json:"name" db:"name"`
	Description  *string      `json:"description,omitempty" db:"description"`
	Type         WaypointType `json:"type" db:"type"`
	Latitude     float64      `json:"latitude" db:"latitude"`
	Longitude    float64      `json:"longitude" db:"longitude"`
	CreatedBy    string       `json:"created_by" db:"created_by"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	IsCompleted  bool         `json:"is_completed" db:"is_completed"`
	IsInProgress bool         `json:"is_in_progress" db:"is_in_progress"`
	Order        int          `json:"order" db:"sequence_order"`
	CreatedAt    int64        `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt    int64        `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// Location returns the waypoint's position
func (w *Waypoint) Location() GeoPoint {
	return GeoPoint{Latitude: w.Latitude, Longitude: w.Longitude}
}

// GroupItinerary is the ordered list of waypoints owned 1:1 by a group
type GroupItinerary struct {
	ID        string     `json:"id" db:"id"`
	GroupID   string     `json:"group_id" db:"group_id"`
	CreatedAt int64      `json:"created_at" db:"created_at"`
	UpdatedAt int64      `json:"updated_at" db:"updated_at"`
	Waypoints []Waypoint `json:"waypoints" db:"-"`
}

// ActiveWaypoints returns active, non-completed waypoints sorted by order
func (it *GroupItinerary) ActiveWaypoints() []Waypoint {
	var active []Waypoint
	for _, w := range it.Waypoints {
		if w.IsActive && !w.IsCompleted {
			active = append(active, w)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Order < active[j].Order })
	return active
}

// NextWaypoint returns the first upcoming waypoint, or nil
func (it *GroupItinerary) NextWaypoint() *Waypoint {
	active := it.ActiveWaypoints()
	if len(active) == 0 {
		return nil
	}
	w := active[0]
	return &w
}

// CurrentWaypoint returns the waypoint currently in progress, or nil
func (it *GroupItinerary) CurrentWaypoint() *Waypoint {
	for i := range it.Waypoints {
		if it.Waypoints[i].IsActive && it.Waypoints[i].IsInProgress {
			w := it.Waypoints[i]
			return &w
		}
	}
	return nil
}

// CompletedWaypoints returns completed waypoints sorted by order
func (it *GroupItinerary) CompletedWaypoints() []Waypoint {
	var done []Waypoint
	for _, w := range it.Waypoints {
		if w.IsActive && w.IsCompleted {
			done = append(done, w)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i].Order < done[j].Order })
	return done
}

// FindWaypoint returns the waypoint with the given id, or nil
func (it *GroupItinerary) FindWaypoint(id string) *Waypoint {
	for i := range it.Waypoints {
		if it.Waypoints[i].ID == id {
			return &it.Waypoints[i]
		}
	}
	return nil
}

// AddWaypointRequest is the request body for POST /api/groups/{id}/waypoints
type AddWaypointRequest struct {
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Type        WaypointType `json:"type"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Order       *int         `json:"order,omitempty"`
}

// ReorderRequest is the request body for PUT /api/groups/{id}/waypoints/order
type ReorderRequest struct {
	WaypointIDs []string `json:"waypoint_ids"`
}
