package game

import "encoding/json"

// RoomState is where a room is in its lobby → round → results cycle.
type RoomState int

const (
	StateWaiting RoomState = iota // lobby, players joining and readying
	StatePlaying                  // a round is running
	StateEnded                    // results shown until the reset delay passes
)

func (s RoomState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Lobby reports whether players may still join and change teams.
func (s RoomState) Lobby() bool {
	return s == StateWaiting
}

// MarshalJSON serializes RoomState as its name.
func (s RoomState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
