package rendezvous

import "time"

const (
	EventBoardJoined     = "board_joined"
	EventBoardLeft       = "board_left"
	EventBoardsJoined    = "boards_joined"
	EventBoardsSeparated = "boards_separated"
)

// Event describes a topology change.
type Event struct {
	Type  string    `json:"type"`
	Board string    `json:"board"`
	Peer  string    `json:"peer,omitempty"`
	Side  string    `json:"side,omitempty"`
	Axis  string    `json:"axis,omitempty"`
	At    time.Time `json:"at"`
}

// EventSink receives topology changes. Publish must not block for long; it
// runs with the service locks released.
type EventSink interface {
	Publish(Event)
}
