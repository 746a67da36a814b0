package zone

import (
	"log/slog"
	"time"
)

// Phase is the lifecycle state of the scheduler.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSpawning
	PhaseActive
	PhaseExpiring
	PhaseTornDown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSpawning:
		return "spawning"
	case PhaseActive:
		return "active"
	case PhaseExpiring:
		return "expiring"
	case PhaseTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Config holds the scheduler timings and arena bounds.
type Config struct {
	Bounds           Bounds
	StartDelay       time.Duration
	TickInterval     time.Duration
	RelocateInterval time.Duration
	TeardownDuration time.Duration
	RespawnDelay     time.Duration
	// FinalCheckOnly defers eliminations to the check made when the countdown
	// runs out. Ticks then only report who is outside.
	FinalCheckOnly bool
}

// DefaultConfig returns the stock Safe Zone timings.
func DefaultConfig() Config {
	return Config{
		Bounds:           DefaultBounds,
		StartDelay:       5 * time.Second,
		TickInterval:     time.Second,
		RelocateInterval: 8 * time.Second,
		TeardownDuration: 1500 * time.Millisecond,
		RespawnDelay:     time.Second,
	}
}

// Arena supplies the participants currently in play.
type Arena interface {
	Participants() []Participant
}

// ArenaFunc adapts a function to Arena.
type ArenaFunc func() []Participant

// Participants implements Arena.
func (f ArenaFunc) Participants() []Participant { return f() }

// Scheduler owns the single active zone and drives it through
// spawn, countdown, expiry, teardown and respawn on a Timers queue.
// All methods must be called from the goroutine that advances the timers.
type Scheduler struct {
	cfg    Config
	timers *Timers
	arena  Arena
	rng    Rand
	sink   Sink

	phase Phase
	zone  *Zone

	// Glide from moveFrom to zone.Target starting at moveStart.
	moveFrom  Vec2
	moveStart time.Duration

	tick     *Timer
	relocate *Timer
	pending  *Timer

	generation uint64
	cycles     int
}

// NewScheduler creates an idle scheduler. A nil sink discards events.
func NewScheduler(cfg Config, timers *Timers, arena Arena, rng Rand, sink Sink) *Scheduler {
	if sink == nil {
		sink = func(Event) {}
	}
	return &Scheduler{
		cfg:    cfg,
		timers: timers,
		arena:  arena,
		rng:    rng,
		sink:   sink,
	}
}

// Start schedules the first zone after the configured start delay.
// It is a no-op unless the scheduler is idle with nothing pending.
func (s *Scheduler) Start() {
	if s.phase != PhaseIdle || s.pending.Active() {
		return
	}
	s.pending = s.timers.After(s.cfg.StartDelay, s.guard(s.spawn))
}

// Stop cancels all pending work and discards the active zone.
// Callbacks already captured by the timer queue become no-ops.
func (s *Scheduler) Stop() {
	s.generation++
	s.tick.Stop()
	s.relocate.Stop()
	s.pending.Stop()
	s.tick, s.relocate, s.pending = nil, nil, nil
	s.zone = nil
	s.phase = PhaseIdle
}

// Phase returns the current lifecycle state.
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// Cycles returns how many zones have been torn down so far.
func (s *Scheduler) Cycles() int {
	return s.cycles
}

// Zone returns a copy of the active zone with its center interpolated to now.
func (s *Scheduler) Zone() (Zone, bool) {
	if s.zone == nil {
		return Zone{}, false
	}
	z := *s.zone
	z.Center = s.centerAt(s.timers.Now())
	return z, true
}

func (s *Scheduler) guard(fn func()) func() {
	gen := s.generation
	return func() {
		if gen != s.generation {
			return
		}
		fn()
	}
}

func (s *Scheduler) spawn() {
	s.phase = PhaseSpawning
	s.pending = nil

	count := 0
	for _, p := range s.arena.Participants() {
		if p.Tracked {
			count++
		}
	}

	z := Spawn(count, s.cfg.Bounds, s.rng)
	s.zone = z
	s.moveFrom = z.Center
	s.moveStart = s.timers.Now()

	slog.Debug("zone spawned",
		"x", z.Center.X, "z", z.Center.Z,
		"participants", count, "countdown", z.RemainingTicks)
	s.sink(ZoneSpawned{Zone: *z, Rings: RingsFor(z)})

	s.phase = PhaseActive
	// The tick timer is registered first so a tick sharing a deadline with a
	// relocation always classifies against the pre-relocation geometry.
	s.tick = s.timers.Every(s.cfg.TickInterval, s.guard(s.onTick))
	s.relocate = s.timers.Every(s.cfg.RelocateInterval, s.guard(s.onRelocate))
	s.onRelocate()
}

func (s *Scheduler) onRelocate() {
	z := s.zone
	if z == nil {
		return
	}
	now := s.timers.Now()
	z.Center = s.centerAt(now)
	s.moveFrom = z.Center
	s.moveStart = now
	z.Target = Relocate(z, s.cfg.Bounds, s.rng)
	s.sink(ZoneRelocated{From: z.Center, To: z.Target, Duration: s.cfg.RelocateInterval})
}

// centerAt interpolates the glide toward the current target.
func (s *Scheduler) centerAt(now time.Duration) Vec2 {
	z := s.zone
	if z == nil {
		return Vec2{}
	}
	if s.cfg.RelocateInterval <= 0 {
		return z.Target
	}
	f := float64(now-s.moveStart) / float64(s.cfg.RelocateInterval)
	if f <= 0 {
		return s.moveFrom
	}
	if f >= 1 {
		return z.Target
	}
	return Vec2{
		X: s.moveFrom.X + (z.Target.X-s.moveFrom.X)*f,
		Z: s.moveFrom.Z + (z.Target.Z-s.moveFrom.Z)*f,
	}
}

func (s *Scheduler) onTick() {
	z := s.zone
	if z == nil {
		return
	}
	z.Center = s.centerAt(s.timers.Now())

	if z.RemainingTicks > 0 {
		z.RemainingTicks--
	}
	s.sink(CountdownTicked{Remaining: z.RemainingTicks})

	if z.RemainingTicks == 0 {
		s.expire()
		return
	}

	participants := s.arena.Participants()
	if outside := Classify(z, participants); len(outside) > 0 {
		s.sink(ParticipantsOutside{IDs: outside, Threshold: Threshold(z)})
	}
	if !s.cfg.FinalCheckOnly {
		s.eliminate(participants)
	}
}

func (s *Scheduler) expire() {
	z := s.zone
	s.tick.Stop()
	s.relocate.Stop()
	s.tick, s.relocate = nil, nil
	s.phase = PhaseExpiring

	s.sink(ZoneExpiring{Zone: *z, Duration: s.cfg.TeardownDuration})
	s.eliminate(s.arena.Participants())

	s.pending = s.timers.After(s.cfg.TeardownDuration, s.guard(s.tearDown))
}

func (s *Scheduler) eliminate(participants []Participant) {
	z := s.zone
	for _, p := range participants {
		if !p.Tracked || !Outside(z, p.Position) {
			continue
		}
		d := Distance(p.Position, z.Center)
		slog.Debug("participant outside zone eliminated", "participant", p.ID, "distance", d)
		s.sink(ParticipantEliminated{ID: p.ID, Distance: d})
	}
}

func (s *Scheduler) tearDown() {
	s.zone = nil
	s.phase = PhaseTornDown
	s.cycles++
	s.sink(ZoneRemoved{NextSpawnIn: s.cfg.RespawnDelay})
	s.pending = s.timers.After(s.cfg.RespawnDelay, s.guard(s.spawn))
}
