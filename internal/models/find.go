package models

// FindState is the lifecycle state of a proximity-finding session
type FindState string

const (
	FindActive    FindState = "active"
	FindCompleted FindState = "completed"
	FindTimedOut  FindState = "timed_out"
	FindCancelled FindState = "cancelled"
)

// Terminal reports whether no further transitions are possible
func (s FindState) Terminal() bool {
	return s == FindCompleted || s == FindTimedOut || s == FindCancelled
}

// FindSession is an ephemeral proximity-finding interaction between two
// members. It lives in the session store (Redis), never in Postgres.
type FindSession struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	RequesterID string    `json:"requester_id"`
	TargetID    string    `json:"target_id"`
	State       FindState `json:"state"`
	CreatedAt   int64     `json:"created_at"` // Unix timestamp
	UpdatedAt   int64     `json:"updated_at"` // Unix timestamp
}

// StartFindRequest is the request body for POST /api/groups/{id}/find
type StartFindRequest struct {
	TargetUserID string `json:"target_user_id"`
}
