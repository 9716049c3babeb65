package models

// Role is a member's role within a group
type Role string

const (
	RoleLeader   Role = "leader"
	RoleFollower Role = "follower"
)

// Member represents a user's membership in a group
type Member struct {
	ID                 string   `json:"id" db:"id"`
	GroupID            string   `json:"group_id" db:"group_id"`
	UserID             string   `json:"user_id" db:"user_id"`
	DisplayName        string   `json:"display_name" db:"display_name"`
	Nickname           *string  `json:"nickname,omitempty" db:"nickname"`
	AvatarEmoji        *string  `json:"avatar_emoji,omitempty" db:"avatar_emoji"`
	Role               Role     `json:"role" db:"role"`
	JoinedAt           int64    `json:"joined_at" db:"joined_at"` // Unix timestamp
	Latitude           *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude          *float64 `json:"longitude,omitempty" db:"longitude"`
	LastLocationUpdate *int64   `json:"last_location_update,omitempty" db:"last_location_update"`
}

// Location returns the member's last known position, or nil if never reported
func (m *Member) Location() *GeoPoint {
	if m.Latitude == nil || m.Longitude == nil {
		return nil
	}
	return &GeoPoint{Latitude: *m.Latitude, Longitude: *m.Longitude}
}

// SetLocation overwrites the member's position fields
func (m *Member) SetLocation(p GeoPoint, at int64) {
	lat, lon := p.Latitude, p.Longitude
	m.Latitude = &lat
	m.Longitude = &lon
	m.LastLocationUpdate = &at
}

// Group is the membership aggregate: one leader, many followers
type Group struct {
	ID              string   `json:"id" db:"id"`
	Name            string   `json:"name" db:"name"`
	LeaderID        string   `json:"leader_id" db:"leader_id"`
	InviteCode      string   `json:"invite_code" db:"invite_code"`
	InviteExpiresAt int64    `json:"invite_expires_at" db:"invite_expires_at"` // Unix timestamp
	IsActive        bool     `json:"is_active" db:"is_active"`
	CreatedAt       int64    `json:"created_at" db:"created_at"`
	UpdatedAt       int64    `json:"updated_at" db:"updated_at"`
	Members         []Member `json:"members" db:"-"`
}

// FindMember returns the member with the given userID, or nil
func (g *Group) FindMember(userID string) *Member {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// Leader returns the leader member, or nil if the roster is inconsistent
func (g *Group) Leader() *Member {
	return g.FindMember(g.LeaderID)
}

// MemberUserIDs returns the userIDs of all current members, optionally
// excluding one (used to address notifications to "everyone else")
func (g *Group) MemberUserIDs(exclude string) []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.UserID != exclude {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// CreateGroupRequest is the request body for POST /api/groups
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// JoinGroupRequest is the request body for POST /api/groups/join
type JoinGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

// UpdateProfileRequest is the request body for PATCH /api/groups/{id}/members/me
type UpdateProfileRequest struct {
	Nickname    *string `json:"nickname,omitempty"`
	AvatarEmoji *string `json:"avatar_emoji,omitempty"`
}

// MemberStatus is a roster entry enriched with staleness for dashboards
type MemberStatus struct {
	Member
	Staleness string `json:"staleness"` // "live", "stale", "offline", "unknown"
}
