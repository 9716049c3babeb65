package models

// CommandType identifies a directive or request exchanged between members
type CommandType string

const (
	// Leader directives
	CommandGather    CommandType = "gather"
	CommandDepart    CommandType = "depart"
	CommandRest      CommandType = "rest"
	CommandBeCareful CommandType = "be_careful"
	CommandGoLeft    CommandType = "go_left"
	CommandGoRight   CommandType = "go_right"
	CommandStop      CommandType = "stop"
	CommandHurryUp   CommandType = "hurry_up"
	CommandCustom    CommandType = "custom"

	// Follower requests
	CommandNeedRestroom   CommandType = "need_restroom"
	CommandNeedBreak      CommandType = "need_break"
	CommandNeedHelp       CommandType = "need_help"
	CommandFoundSomething CommandType = "found_something"
)

// IsLeaderOnly reports whether only the group leader may send this type
func (t CommandType) IsLeaderOnly() bool {
	switch t {
	case CommandGather, CommandDepart, CommandRest, CommandBeCareful,
		CommandGoLeft, CommandGoRight, CommandStop, CommandHurryUp, CommandCustom:
		return true
	}
	return false
}

// IsFollowerRequest reports whether this type is a follower-to-leader request
func (t CommandType) IsFollowerRequest() bool {
	switch t {
	case CommandNeedRestroom, CommandNeedBreak, CommandNeedHelp, CommandFoundSomething:
		return true
	}
	return false
}

// Valid reports whether the type is a known command type
func (t CommandType) Valid() bool {
	return t.IsLeaderOnly() || t.IsFollowerRequest()
}

// DefaultMessage returns the template used when the sender omits a message
func (t CommandType) DefaultMessage() string {
	switch t {
	case CommandGather:
		return "Everyone gather here"
	case CommandDepart:
		return "Let's head out"
	case CommandRest:
		return "Let's take a break here"
	case CommandBeCareful:
		return "Be careful"
	case CommandGoLeft:
		return "Turn left ahead"
	case CommandGoRight:
		return "Turn right ahead"
	case CommandStop:
		return "Stop where you are"
	case CommandHurryUp:
		return "Please hurry up"
	case CommandNeedRestroom:
		return "I need a restroom break"
	case CommandNeedBreak:
		return "I need a short break"
	case CommandNeedHelp:
		return "I need help"
	case CommandFoundSomething:
		return "I found something, come look"
	}
	return ""
}

// Command is an append-only log entry; never mutated after creation.
// Log ordering key is (timestamp, id).
type Command struct {
	ID         string      `json:"id" db:"id"`
	GroupID    string      `json:"group_id" db:"group_id"`
	SenderID   string      `json:"sender_id" db:"sender_id"`
	SenderName string      `json:"sender_name" db:"sender_name"`
	Type       CommandType `json:"type" db:"type"`
	Message    string      `json:"message" db:"message"`
	Timestamp  int64       `json:"timestamp" db:"timestamp"` // Unix timestamp
	Latitude   *float64    `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64    `json:"longitude,omitempty" db:"longitude"`
}

// Location returns the command's attached position, or nil
func (c *Command) Location() *GeoPoint {
	if c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &GeoPoint{Latitude: *c.Latitude, Longitude: *c.Longitude}
}

// SendCommandRequest is the request body for POST /api/groups/{id}/commands
type SendCommandRequest struct {
	Type      CommandType `json:"type"`
	Message   string      `json:"message,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
}
