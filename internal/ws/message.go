package ws

import (
	"encoding/json"

	"github.com/ugaemi/safezone-server/internal/zone"
)

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Lobby
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room"
	TypeSelectTeam  = "select_team"
	TypePlayerReady = "player_ready"
	TypeRoundStart  = "round_start"
)

// Message types - Gameplay
const (
	TypePlayerMove        = "player_move"
	TypeGameState         = "game_state"
	TypeGameOver          = "game_over"
	TypePlayerSpawned     = "player_spawned"
	TypePlayerEliminated  = "player_eliminated"
	TypePlayerDelayedJoin = "player_delayed_join"
)

// Message types - Safe Zone
const (
	TypeZoneSpawned   = "zone_spawned"
	TypeZoneRelocated = "zone_relocated"
	TypeCountdown     = "countdown"
	TypeZoneWarning   = "zone_warning"
	TypeZoneExpiring  = "zone_expiring"
	TypeZoneRemoved   = "zone_removed"
)

// Message types - System
const (
	TypeError    = "error"
	TypeRoomInfo = "room_info"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}

// ZoneSpawnedMessage announces a new zone and its ring keyframes.
type ZoneSpawnedMessage struct {
	Zone      zone.Zone  `json:"zone"`
	Rings     zone.Rings `json:"rings"`
	Threshold float64    `json:"threshold"`
}

// ZoneRelocatedMessage starts a glide from From to To.
type ZoneRelocatedMessage struct {
	From       zone.Vec2 `json:"from"`
	To         zone.Vec2 `json:"to"`
	DurationMS int64     `json:"duration_ms"`
}

type CountdownMessage struct {
	Remaining int `json:"remaining"`
}

// ZoneWarningMessage lists players currently outside the zone.
type ZoneWarningMessage struct {
	PlayerIDs []string `json:"player_ids"`
	Threshold float64  `json:"threshold"`
}

type ZoneExpiringMessage struct {
	Center     zone.Vec2 `json:"center"`
	Radius     float64   `json:"radius"`
	DurationMS int64     `json:"duration_ms"`
}

type ZoneRemovedMessage struct {
	NextSpawnInMS int64 `json:"next_spawn_in_ms"`
}

type PlayerEliminatedMessage struct {
	PlayerID string  `json:"player_id"`
	Distance float64 `json:"distance"`
	Lives    int     `json:"lives"`
}

type PlayerSpawnedMessage struct {
	PlayerID string  `json:"player_id"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Lives    int     `json:"lives"`
}

type PlayerDelayedJoinMessage struct {
	PlayerID string `json:"player_id"`
}
