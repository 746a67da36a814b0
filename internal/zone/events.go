package zone

import "time"

// Event is a notification emitted by the Scheduler. Consumers switch on the
// concrete type.
type Event interface {
	event()
}

// ZoneSpawned is emitted when a new zone appears.
type ZoneSpawned struct {
	Zone  Zone
	Rings Rings
}

// ZoneRelocated is emitted when the zone starts gliding to a new center.
type ZoneRelocated struct {
	From     Vec2
	To       Vec2
	Duration time.Duration
}

// CountdownTicked is emitted once per second while the zone is active.
type CountdownTicked struct {
	Remaining int
}

// ParticipantsOutside lists everyone currently outside the zone on a tick.
type ParticipantsOutside struct {
	IDs       []string
	Threshold float64
}

// ParticipantEliminated is emitted for each participant the zone kills.
type ParticipantEliminated struct {
	ID       string
	Distance float64
}

// ZoneExpiring is emitted when the countdown runs out and teardown begins.
type ZoneExpiring struct {
	Zone     Zone
	Duration time.Duration
}

// ZoneRemoved is emitted once teardown completes and the zone is discarded.
type ZoneRemoved struct {
	NextSpawnIn time.Duration
}

func (ZoneSpawned) event()           {}
func (ZoneRelocated) event()         {}
func (CountdownTicked) event()       {}
func (ParticipantsOutside) event()   {}
func (ParticipantEliminated) event() {}
func (ZoneExpiring) event()          {}
func (ZoneRemoved) event()           {}

// Sink receives scheduler events. It must not block.
type Sink func(Event)
