// Package sim plays headless Safe Zone rounds with wandering bots. It drives
// the same game.Match the server runs, without a network or wall clock.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/zone"
)

// Config controls a simulated round.
type Config struct {
	Players  int
	Seed     int64
	MaxTicks int
	Settings game.Settings
	Zone     zone.Config
	// Chance per tick that a bot heads for the zone center instead of
	// wandering, in [0,1].
	Homing float64
}

// Summary reports what happened in a simulated round.
type Summary struct {
	Result       *game.RoundResult `json:"result"`
	Ticks        int               `json:"ticks"`
	ZonesSpawned int               `json:"zones_spawned"`
	Eliminations int               `json:"eliminations"`
	Warnings     int               `json:"warnings"`
	TimedOut     bool              `json:"timed_out"`
}

type bot struct {
	player  *game.Player
	heading float64
}

// Run plays one round to completion or until MaxTicks game ticks elapse.
func Run(cfg Config) (*Summary, error) {
	if cfg.Players < game.MinPlayers || cfg.Players > game.MaxPlayers {
		return nil, fmt.Errorf("sim: players must be in [%d,%d], got %d", game.MinPlayers, game.MaxPlayers, cfg.Players)
	}
	if cfg.MaxTicks <= 0 {
		return nil, fmt.Errorf("sim: max ticks must be positive")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := game.NewMatch(cfg.Settings, cfg.Zone, rng)

	bots := make([]*bot, 0, cfg.Players)
	for i := range cfg.Players {
		p := game.NewPlayer(fmt.Sprintf("bot-%02d", i+1))
		m.Round.AddPlayer(p)
		bots = append(bots, &bot{player: p, heading: rng.Float64() * 2 * math.Pi})
	}

	sum := &Summary{}
	m.OnZoneEvent = func(e zone.Event) {
		switch ev := e.(type) {
		case zone.ZoneSpawned:
			sum.ZonesSpawned++
			slog.Info("zone spawned",
				"x", ev.Zone.Center.X, "z", ev.Zone.Center.Z,
				"radius", ev.Zone.CurrentRadius, "countdown", ev.Zone.RemainingTicks)
		case zone.ParticipantsOutside:
			sum.Warnings++
			slog.Debug("outside zone", "players", len(ev.IDs))
		case zone.ParticipantEliminated:
			sum.Eliminations++
			slog.Info("zone elimination", "player", nickname(m, ev.ID), "distance", ev.Distance)
		case zone.ZoneRemoved:
			slog.Debug("zone removed", "next_in", ev.NextSpawnIn)
		}
	}
	m.Round.OnEnd = func(res *game.RoundResult) { sum.Result = res }

	m.Begin()
	speed := game.MaxMoveSpeed * 0.5 * game.TickInterval.Seconds()
	for sum.Ticks < cfg.MaxTicks && !m.Round.Ended() {
		steer(bots, m, rng, speed, cfg.Homing)
		m.Advance(game.TickInterval)
		sum.Ticks++
	}
	if !m.Round.Ended() {
		sum.TimedOut = true
		m.Stop()
	}

	slog.Info("simulation finished",
		"ticks", sum.Ticks, "elapsed", time.Duration(sum.Ticks)*game.TickInterval,
		"zones", sum.ZonesSpawned, "eliminations", sum.Eliminations)
	return sum, nil
}

// steer moves every living bot one step: toward the zone center when homing,
// otherwise along a slowly drifting heading that bounces off the arena walls.
func steer(bots []*bot, m *game.Match, rng *rand.Rand, step, homing float64) {
	z, hasZone := m.Scheduler.Zone()
	for _, b := range bots {
		p := b.player
		if !p.Alive {
			continue
		}
		if hasZone && rng.Float64() < homing {
			b.heading = math.Atan2(z.Center.Z-p.Z, z.Center.X-p.X)
		} else {
			b.heading += (rng.Float64() - 0.5) * 0.6
		}

		x := p.X + math.Cos(b.heading)*step
		zz := p.Z + math.Sin(b.heading)*step
		if !game.InArena(x, zz) {
			b.heading += math.Pi
			x, zz = game.ClampPosition(x, zz)
		}
		p.SetPosition(x, zz)
	}
}

func nickname(m *game.Match, id string) string {
	if p := m.Round.Player(id); p != nil {
		return p.Nickname
	}
	return id
}
