package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/safezone-server/internal/zone"
)

// RoundResult is the outcome of a finished round.
type RoundResult struct {
	ID       string        `json:"id"`
	Mode     Mode          `json:"mode"`
	Players  int           `json:"players"`
	Duration time.Duration `json:"duration"`
	EndedAt  time.Time     `json:"ended_at"`
	Teams    []TeamResult  `json:"teams"`
}

// Round tracks lives, teams and survival times for one game. It is driven by
// a zone.Timers queue and must only be used from the goroutine advancing it.
type Round struct {
	ID       string
	settings Settings
	timers   *zone.Timers
	rng      *rand.Rand

	players []*Player
	teams   []*Team

	begun   bool
	ended   bool
	startAt time.Duration

	poll     *zone.Timer
	limit    *zone.Timer
	endTimer *zone.Timer

	// OnSpawn is called whenever a player is placed in the arena.
	OnSpawn func(p *Player)
	// OnDelayedJoin is called for players joining after the round began.
	OnDelayedJoin func(p *Player)
	// OnEnd is called once with the final result.
	OnEnd func(result *RoundResult)
}

// NewRound creates a round that has not begun yet.
func NewRound(settings Settings, timers *zone.Timers, rng *rand.Rand) *Round {
	r := &Round{
		ID:       uuid.New().String(),
		settings: settings,
		timers:   timers,
		rng:      rng,
	}
	if settings.Mode == ModeTeams {
		for i, name := range TeamNames {
			r.teams = append(r.teams, &Team{ID: i, Name: name})
		}
	}
	return r
}

// Settings returns the round settings.
func (r *Round) Settings() Settings {
	return r.settings
}

// AddPlayer registers a player. Players joining before Begin get the full
// lives allowance and it returns true. Later joiners sit the round out with
// zero lives and it returns false.
func (r *Round) AddPlayer(p *Player) bool {
	r.assignTeam(p)
	r.players = append(r.players, p)

	if !r.begun {
		p.Lives = r.settings.LivesPerPlayer
		if r.solo() {
			team := r.teams[p.Team]
			team.spawnOrder = append(team.spawnOrder, p)
		}
		return true
	}

	p.Lives = 0
	p.Alive = false
	// A team made only of blocked joiners would otherwise count as still
	// alive when results are tallied.
	team := r.teams[p.Team]
	if TotalTeamLives(r.players, p.Team) == 0 && team.SurvivalSeconds == nil {
		zero := 0
		team.SurvivalSeconds = &zero
	}
	if r.OnDelayedJoin != nil {
		r.OnDelayedJoin(p)
	}
	return false
}

func (r *Round) assignTeam(p *Player) {
	if r.settings.Mode != ModeTeams {
		p.Team = len(r.teams)
		r.teams = append(r.teams, &Team{ID: p.Team, Name: p.Nickname})
		return
	}
	if p.Team >= 0 && p.Team < len(r.teams) {
		return
	}
	counts := make([]int, len(r.teams))
	for _, other := range r.players {
		if other.Team >= 0 && other.Team < len(counts) {
			counts[other.Team]++
		}
	}
	p.Team = 0
	for i, c := range counts {
		if c < counts[p.Team] {
			p.Team = i
		}
	}
}

// RemovePlayer drops a player. If that leaves their team without lives, the
// team's survival time is recorded.
func (r *Round) RemovePlayer(id string) {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	p := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if p.Team >= 0 && p.Team < len(r.teams) {
		team := r.teams[p.Team]
		team.spawnOrder = withoutPlayer(team.spawnOrder, p)
	}

	if r.begun && !r.ended {
		r.markTeamIfOut(p.Team)
	}
}

// Begin starts the round: balances lives, spawns everyone with lives, and
// starts the living-team poll and the time limit. In solo mode only the
// head of each team's spawn order is spawned.
func (r *Round) Begin() {
	if r.begun {
		return
	}
	r.begun = true
	r.startAt = r.timers.Now()

	if r.settings.Mode == ModeTeams && r.settings.BalanceTotalLives {
		r.balanceLives()
	}

	var spawning []*Player
	if r.solo() {
		spawning = r.nextUp()
	} else {
		for _, p := range r.players {
			if p.Lives > 0 {
				spawning = append(spawning, p)
			}
		}
	}
	positions := GenerateSpawnPositions(spawning, r.settings.Mode, r.rng)
	for _, p := range spawning {
		pos := positions[p.ID]
		p.SetPosition(pos.X, pos.Z)
		p.Alive = true
		if r.OnSpawn != nil {
			r.OnSpawn(p)
		}
	}

	// Polling is simpler than reacting at every trigger point, and one
	// second of latency is hidden by the end delay anyway.
	r.poll = r.timers.Every(UpdateInterval, r.update)
	if r.settings.TimeLimit > 0 {
		r.limit = r.timers.After(r.settings.TimeLimit, r.End)
	}

	slog.Info("round begun", "round", r.ID, "players", len(r.players), "mode", r.settings.Mode.String())
}

// balanceLives adds lives round-robin to the weaker team until totals match.
func (r *Round) balanceLives() {
	var members [MaxTeams][]*Player
	for _, p := range r.players {
		if p.Team >= 0 && p.Team < MaxTeams {
			members[p.Team] = append(members[p.Team], p)
		}
	}
	if len(members[0]) == 0 || len(members[1]) == 0 {
		return
	}

	lesser, greater := 0, 1
	if TotalTeamLives(r.players, 0) >= TotalTeamLives(r.players, 1) {
		lesser, greater = 1, 0
	}
	for i := 0; TotalTeamLives(r.players, lesser) < TotalTeamLives(r.players, greater); i++ {
		members[lesser][i%len(members[lesser])].Lives++
	}
}

// Eliminate kills a living player. The player respawns after the respawn time
// while lives remain. In solo mode the player goes to the back of the team's
// spawn order instead and the next teammate is fielded by the poll. Returns
// false if the player was not alive.
func (r *Round) Eliminate(id string) bool {
	p := r.Player(id)
	if p == nil || !p.Alive || r.ended {
		return false
	}

	p.Alive = false
	p.Lives--
	if p.Lives < 0 {
		slog.Error("player lives below zero", "round", r.ID, "player", p.ID)
		p.Lives = 0
	}

	if p.Lives == 0 {
		r.markTeamIfOut(p.Team)
	} else if !r.solo() {
		r.timers.After(r.settings.RespawnTime, func() { r.respawn(id) })
	}
	if r.solo() {
		team := r.teams[p.Team]
		team.spawnOrder = append(withoutPlayer(team.spawnOrder, p), p)
	}

	slog.Info("player eliminated", "round", r.ID, "player", p.ID, "lives", p.Lives)
	return true
}

func (r *Round) markTeamIfOut(team int) {
	if team < 0 || team >= len(r.teams) {
		return
	}
	t := r.teams[team]
	if TotalTeamLives(r.players, team) == 0 && t.SurvivalSeconds == nil {
		secs := r.ElapsedSeconds()
		t.SurvivalSeconds = &secs
	}
}

func (r *Round) respawn(id string) {
	p := r.Player(id)
	if p == nil || r.ended || p.Alive || p.Lives == 0 {
		return
	}
	r.place(p)
}

func (r *Round) place(p *Player) {
	var occupied []zone.Vec2
	for _, other := range r.players {
		if other.Alive {
			occupied = append(occupied, other.Position())
		}
	}
	pos := SpawnPoint(r.settings.Mode, p.Team, occupied, r.rng)
	p.SetPosition(pos.X, pos.Z)
	p.Alive = true
	if r.OnSpawn != nil {
		r.OnSpawn(p)
	}
}

func (r *Round) solo() bool {
	return r.settings.SoloMode && r.settings.Mode == ModeTeams
}

// nextUp returns, per team, the first player in the spawn order with lives
// left, when that player is not already fielded.
func (r *Round) nextUp() []*Player {
	var out []*Player
	for _, t := range r.teams {
		for _, p := range t.spawnOrder {
			if p.Lives > 0 {
				if !p.Alive {
					out = append(out, p)
				}
				break
			}
		}
	}
	return out
}

func (r *Round) update() {
	if r.ended || r.endTimer.Active() {
		return
	}
	if r.solo() {
		for _, p := range r.nextUp() {
			r.place(p)
		}
	}
	// Ending after a short delay lets near-simultaneous deaths settle as a draw.
	if len(LivingTeams(r.players)) < 2 {
		r.endTimer = r.timers.After(RoundEndDelay, r.End)
	}
}

// End finishes the round and reports the result. Safe to call twice.
func (r *Round) End() {
	if r.ended {
		return
	}
	r.ended = true
	r.poll.Stop()
	r.limit.Stop()
	r.endTimer.Stop()

	result := r.Result()
	slog.Info("round ended", "round", r.ID, "duration", result.Duration)
	if r.OnEnd != nil {
		r.OnEnd(result)
	}
}

// Result builds the current result.
func (r *Round) Result() *RoundResult {
	return &RoundResult{
		ID:       r.ID,
		Mode:     r.settings.Mode,
		Players:  len(r.players),
		Duration: r.Elapsed(),
		EndedAt:  time.Now(),
		Teams:    RankTeams(r.teams),
	}
}

// Participants implements zone.Arena over the living players.
func (r *Round) Participants() []zone.Participant {
	out := make([]zone.Participant, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive {
			out = append(out, p.Participant())
		}
	}
	return out
}

// Player returns a player by ID, or nil.
func (r *Round) Player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Players returns the players in join order.
func (r *Round) Players() []*Player {
	return append([]*Player(nil), r.players...)
}

// Teams returns the round's teams.
func (r *Round) Teams() []*Team {
	return append([]*Team(nil), r.teams...)
}

func (r *Round) Begun() bool { return r.begun }
func (r *Round) Ended() bool { return r.ended }

// Elapsed returns the time since Begin.
func (r *Round) Elapsed() time.Duration {
	if !r.begun {
		return 0
	}
	return r.timers.Now() - r.startAt
}

// ElapsedSeconds returns whole seconds since Begin.
func (r *Round) ElapsedSeconds() int {
	return int(r.Elapsed() / time.Second)
}

func withoutPlayer(order []*Player, p *Player) []*Player {
	out := order[:0]
	for _, o := range order {
		if o != p {
			out = append(out, o)
		}
	}
	return out
}
