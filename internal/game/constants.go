package game

import "time"

// Arena movement bounds (stadium units). Slightly wider than the zone
// placement bounds so players can stand past the zone edge.
const (
	ArenaMinX = -12.0
	ArenaMaxX = 12.0
	ArenaMinZ = -6.0
	ArenaMaxZ = 6.0
)

// Player limits
const (
	MinPlayers = 2
	MaxPlayers = 12
	MaxTeams   = 2 // teams mode
)

// Lives
const (
	MinLivesPerPlayer     = 1
	MaxLivesPerPlayer     = 10
	DefaultLivesPerPlayer = 2
)

// Respawn timings
const (
	RespawnShort  = 250 * time.Millisecond
	RespawnNormal = 500 * time.Millisecond
)

// Game timing
const (
	TickRate       = 10 // ticks per second
	TickInterval   = time.Second / TickRate
	UpdateInterval = time.Second // living-team poll
	RoundEndDelay  = 500 * time.Millisecond
	ResetDelay     = 5 * time.Second
	EpicTimeScale  = 0.5 // round clock speed in epic mode
)

// Movement
const (
	MaxMoveSpeed       = 8.0 // units per second
	MoveSpeedTolerance = 1.5 // slack for network jitter
)

// Spawn
const (
	MinSpawnDistance = 2.0 // minimum distance between spawned players
	TeamStartX       = 8.0 // |x| of the team start lines
)
