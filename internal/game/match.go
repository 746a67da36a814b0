package game

import (
	"math/rand"
	"time"

	"github.com/ugaemi/safezone-server/internal/zone"
)

// Match wires a Round to a zone Scheduler on a shared timer queue. Zone
// eliminations are applied to the round before being forwarded.
type Match struct {
	Round     *Round
	Scheduler *zone.Scheduler
	Timers    *zone.Timers

	// OnZoneEvent receives every zone event after it has been applied.
	OnZoneEvent func(zone.Event)

	scale float64
}

// NewMatch creates a match with its own timer queue.
func NewMatch(settings Settings, zoneCfg zone.Config, rng *rand.Rand) *Match {
	m := &Match{Timers: zone.NewTimers(), scale: 1}
	if settings.EpicMode {
		m.scale = EpicTimeScale
	}
	m.Round = NewRound(settings, m.Timers, rng)
	m.Scheduler = zone.NewScheduler(zoneCfg, m.Timers, m.Round, rng, m.handleZoneEvent)
	return m
}

// Begin starts the round and schedules the first zone.
func (m *Match) Begin() {
	m.Round.Begin()
	m.Scheduler.Start()
}

// Advance moves the match clock forward by d of wall time, scaled down in
// epic mode. Once the round has ended the zone is stopped so no further
// eliminations are produced.
func (m *Match) Advance(d time.Duration) {
	m.Timers.Advance(time.Duration(float64(d) * m.scale))
	if m.Round.Ended() && m.Scheduler.Phase() != zone.PhaseIdle {
		m.Scheduler.Stop()
	}
}

// Stop ends the round and halts the zone.
func (m *Match) Stop() {
	m.Scheduler.Stop()
	m.Round.End()
}

func (m *Match) handleZoneEvent(e zone.Event) {
	if ev, ok := e.(zone.ParticipantEliminated); ok {
		m.Round.Eliminate(ev.ID)
	}
	if m.OnZoneEvent != nil {
		m.OnZoneEvent(e)
	}
}
