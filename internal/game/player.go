package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/safezone-server/internal/zone"
)

// NoTeam marks a player that has not been assigned a team yet.
const NoTeam = -1

type Player struct {
	ID           string    `json:"id"`
	Nickname     string    `json:"nickname"`
	Team         int       `json:"team"`
	Lives        int       `json:"lives"`
	Alive        bool      `json:"alive"`
	X            float64   `json:"x"`
	Z            float64   `json:"z"`
	Ready        bool      `json:"ready"`
	LastMoveTime time.Time `json:"-"`
}

func NewPlayer(nickname string) *Player {
	return &Player{
		ID:       uuid.New().String(),
		Nickname: nickname,
		Team:     NoTeam,
	}
}

func (p *Player) SetTeam(team int) {
	p.Team = team
}

func (p *Player) SetPosition(x, z float64) {
	p.X = x
	p.Z = z
}

// Position returns the player's floor position.
func (p *Player) Position() zone.Vec2 {
	return zone.Vec2{X: p.X, Z: p.Z}
}

// Participant returns the zone's view of this player.
func (p *Player) Participant() zone.Participant {
	return zone.Participant{ID: p.ID, Position: p.Position(), Tracked: p.Alive}
}

func (p *Player) Reset() {
	p.Lives = 0
	p.Alive = false
	p.Ready = false
	p.X = 0
	p.Z = 0
	p.LastMoveTime = time.Time{}
}

// Team groups players that win or lose together. In free-for-all mode
// every player has a team of their own.
type Team struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	SurvivalSeconds *int   `json:"survival_seconds"`

	// spawnOrder is the solo mode queue; its first member with lives left
	// is the one fielded.
	spawnOrder []*Player
}

// TeamNames are the names of the two teams in teams mode.
var TeamNames = [MaxTeams]string{"blue", "red"}

// ParseTeam returns the team index for a name.
func ParseTeam(name string) (int, bool) {
	for i, n := range TeamNames {
		if n == name {
			return i, true
		}
	}
	return NoTeam, false
}

// ClampPosition clamps a position within the arena bounds.
func ClampPosition(x, z float64) (float64, float64) {
	if x < ArenaMinX {
		x = ArenaMinX
	} else if x > ArenaMaxX {
		x = ArenaMaxX
	}
	if z < ArenaMinZ {
		z = ArenaMinZ
	} else if z > ArenaMaxZ {
		z = ArenaMaxZ
	}
	return x, z
}

// InArena reports whether a position is inside the arena bounds.
func InArena(x, z float64) bool {
	return x >= ArenaMinX && x <= ArenaMaxX && z >= ArenaMinZ && z <= ArenaMaxZ
}
