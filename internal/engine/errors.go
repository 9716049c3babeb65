package engine

import "errors"

// Error taxonomy for the coordination engine. Local validation errors are
// terminal: callers surface them to the initiating user and never retry.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrExpiredInvite       = errors.New("invite code expired")
	ErrInvalidInvite       = errors.New("invalid invite code")
	ErrAlreadyInProgress   = errors.New("another waypoint is already in progress")
	ErrInconsistentReorder = errors.New("reorder does not match the active waypoint set")
	ErrOutOfRange          = errors.New("coordinates out of range")
	ErrStaleWrite          = errors.New("stale location write")
	ErrLeaderCannotLeave   = errors.New("leader cannot leave while followers remain")
	ErrTimedOut            = errors.New("find session timed out")
)
