package game

import (
	"math/rand"

	"github.com/ugaemi/safezone-server/internal/zone"
)

// SpawnPoint picks where a player (re)spawns.
// Teams mode: on the team's start line, blue at -TeamStartX and red at +TeamStartX.
// Free-for-all: anywhere in the arena, keeping MinSpawnDistance from the
// positions in occupied.
func SpawnPoint(mode Mode, team int, occupied []zone.Vec2, rng *rand.Rand) zone.Vec2 {
	if mode == ModeTeams {
		x := -TeamStartX
		if team == 1 {
			x = TeamStartX
		}
		return zone.Vec2{X: x, Z: ArenaMinZ + 1 + rng.Float64()*(ArenaMaxZ-ArenaMinZ-2)}
	}
	return generatePosition(ArenaMinX+1, ArenaMaxX-1, ArenaMinZ+1, ArenaMaxZ-1, occupied, rng)
}

// GenerateSpawnPositions assigns spawn positions for all players in order.
// Maintains MinSpawnDistance between free-for-all players.
func GenerateSpawnPositions(players []*Player, mode Mode, rng *rand.Rand) map[string]zone.Vec2 {
	positions := make(map[string]zone.Vec2, len(players))
	placed := make([]zone.Vec2, 0, len(players))

	for _, p := range players {
		pos := SpawnPoint(mode, p.Team, placed, rng)
		positions[p.ID] = pos
		placed = append(placed, pos)
	}

	return positions
}

// generatePosition finds a random position within bounds that respects MinSpawnDistance
// from all existing positions. Falls back to a random position after maxAttempts.
func generatePosition(minX, maxX, minZ, maxZ float64, existing []zone.Vec2, rng *rand.Rand) zone.Vec2 {
	const maxAttempts = 100

	for i := 0; i < maxAttempts; i++ {
		pos := zone.Vec2{
			X: minX + rng.Float64()*(maxX-minX),
			Z: minZ + rng.Float64()*(maxZ-minZ),
		}
		if isFarEnough(pos, existing) {
			return pos
		}
	}

	// Fallback: return a random position even if distance is not guaranteed
	return zone.Vec2{
		X: minX + rng.Float64()*(maxX-minX),
		Z: minZ + rng.Float64()*(maxZ-minZ),
	}
}

// isFarEnough checks if pos is at least MinSpawnDistance from all existing positions.
func isFarEnough(pos zone.Vec2, existing []zone.Vec2) bool {
	for _, p := range existing {
		if zone.Distance(pos, p) < MinSpawnDistance {
			return false
		}
	}
	return true
}
