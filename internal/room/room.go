package room

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/store"
	"github.com/ugaemi/safezone-server/internal/ws"
	"github.com/ugaemi/safezone-server/internal/zone"
)

var (
	ErrNotWaiting  = errors.New("round already in progress")
	ErrTeamFull    = errors.New("team is full")
	ErrInvalidTeam = errors.New("invalid team")
	ErrNoTeams     = errors.New("room is not in teams mode")
	ErrNotInRoom   = errors.New("player not in room")
	ErrNotPlaying  = errors.New("game is not in progress")
	ErrEliminated  = errors.New("player is eliminated")
	ErrTooFast     = errors.New("movement too fast")
)

const saveTimeout = 5 * time.Second

// Options configures the rounds played in a room.
type Options struct {
	Zone       zone.Config
	Settings   game.Settings
	Results    store.ResultStore
	ResetDelay time.Duration
	// Seed fixes the room RNG. Zero seeds from the clock.
	Seed int64
}

// DefaultOptions returns stock settings with an in-memory result store.
func DefaultOptions() Options {
	return Options{
		Zone:       zone.DefaultConfig(),
		Settings:   game.DefaultSettings(),
		Results:    store.NewMemoryStore(),
		ResetDelay: game.ResetDelay,
	}
}

// Room represents a game room with players and state.
type Room struct {
	Code    string                  `json:"code"`
	State   game.RoomState          `json:"state"`
	Players map[string]*game.Player `json:"players"`
	HostID  string                  `json:"host_id"`

	// Client mapping: player ID -> ws client
	clients map[string]*ws.Client
	order   []string // player IDs in join order

	opts Options
	rng  *rand.Rand

	// Game loop control. match and outbox are only touched with mu held.
	match  *game.Match
	outbox []ws.Message
	result *game.RoundResult
	stopCh chan struct{}

	mu sync.RWMutex
}

// NewRoom creates a new room with the given code.
func NewRoom(code string, opts Options) *Room {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.Results == nil {
		opts.Results = store.NewMemoryStore()
	}
	return &Room{
		Code:    code,
		State:   game.StateWaiting,
		Players: make(map[string]*game.Player),
		clients: make(map[string]*ws.Client),
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Settings returns the room's round settings.
func (r *Room) Settings() game.Settings {
	return r.opts.Settings
}

// AddPlayer adds a player to the room. Returns false if the room is full.
// Players joining during a round sit it out until the next one.
func (r *Room) AddPlayer(player *game.Player, client *ws.Client) bool {
	r.mu.Lock()

	if len(r.Players) >= game.MaxPlayers {
		r.mu.Unlock()
		return false
	}

	r.Players[player.ID] = player
	r.clients[player.ID] = client
	r.order = append(r.order, player.ID)

	if len(r.Players) == 1 {
		r.HostID = player.ID
	}

	if r.State == game.StatePlaying && r.match != nil {
		r.match.Round.AddPlayer(player)
	}
	pending := r.takeOutbox()
	r.mu.Unlock()

	r.broadcastAll(pending)
	return true
}

// RemovePlayer removes a player from the room.
func (r *Room) RemovePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Players, playerID)
	delete(r.clients, playerID)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == playerID })

	if r.match != nil && r.State == game.StatePlaying {
		r.match.Round.RemovePlayer(playerID)
	}

	// Transfer host to the longest-present player
	if r.HostID == playerID && len(r.order) > 0 {
		r.HostID = r.order[0]
	}
}

// PlayerCount returns the number of players.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players)
}

// Player returns a copy of a player's current state.
func (r *Room) Player(playerID string) (game.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.Players[playerID]
	if !ok {
		return game.Player{}, false
	}
	return *p, true
}

// HasPlayer reports whether the player is in this room.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.Players[playerID]
	return ok
}

// teamCount returns the number of players on a team. Caller must hold r.mu.
func (r *Room) teamCount(team int) int {
	count := 0
	for _, p := range r.Players {
		if p.Team == team {
			count++
		}
	}
	return count
}

// SelectTeam moves a waiting player to a team in teams mode.
func (r *Room) SelectTeam(playerID string, team int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.Settings.Mode != game.ModeTeams {
		return ErrNoTeams
	}
	if !r.State.Lobby() {
		return ErrNotWaiting
	}
	if team < 0 || team >= game.MaxTeams {
		return ErrInvalidTeam
	}
	p, ok := r.Players[playerID]
	if !ok {
		return ErrNotInRoom
	}
	if p.Team == team {
		return nil
	}
	if r.teamCount(team) >= game.MaxPlayers/game.MaxTeams {
		return ErrTeamFull
	}
	p.SetTeam(team)
	return nil
}

// SetPlayerReady sets a player's ready status and returns whether all players are ready.
// This must be used instead of setting Ready directly to avoid race conditions.
func (r *Room) SetPlayerReady(playerID string, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.Players[playerID]; ok {
		p.Ready = ready
	}

	return r.allReady()
}

// allReady checks if the room can start a round. Caller must hold r.mu.
func (r *Room) allReady() bool {
	if !r.State.Lobby() || len(r.Players) < game.MinPlayers {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	if r.opts.Settings.Mode == game.ModeTeams {
		// Unassigned players are balanced in by the round, but each side
		// needs at least one player to be a contest.
		unassigned := r.teamCount(game.NoTeam)
		for team := range game.MaxTeams {
			if r.teamCount(team) == 0 && unassigned == 0 {
				return false
			}
		}
	}
	return true
}

// GetPlayerList returns the players in join order.
func (r *Room) GetPlayerList() []*game.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playerList()
}

// playerList returns the players in join order. Caller must hold r.mu.
func (r *Room) playerList() []*game.Player {
	players := make([]*game.Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.Players[id])
	}
	return players
}

// PlayerStates returns copies of the players in join order, safe to encode
// while a round is running.
func (r *Room) PlayerStates() []game.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]game.Player, 0, len(r.order))
	for _, p := range r.playerList() {
		out = append(out, *p)
	}
	return out
}

// Info returns the room's lobby state.
func (r *Room) Info() (state game.RoomState, hostID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State, r.HostID
}

// ZoneConfig returns the zone timings used by the room.
func (r *Room) ZoneConfig() zone.Config {
	return r.opts.Zone
}

// BroadcastMessage sends a message to all players in the room.
func (r *Room) BroadcastMessage(msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, client := range r.clients {
		client.SendMessage(msg)
	}
}

func (r *Room) broadcastAll(msgs []ws.Message) {
	if len(msgs) == 0 {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, msg := range msgs {
		for _, client := range r.clients {
			client.SendMessage(msg)
		}
	}
}

// SendToPlayer sends a message to a specific player.
func (r *Room) SendToPlayer(playerID string, msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.clients[playerID]; ok {
		client.SendMessage(msg)
	}
}

// IsEmpty returns true if the room has no players.
func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// Reset returns an ended room to waiting, keeping players and team picks.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != game.StateEnded {
		return
	}
	r.State = game.StateWaiting
	r.match = nil
	r.result = nil
	for _, p := range r.Players {
		p.Reset()
		if r.opts.Settings.Mode != game.ModeTeams {
			p.SetTeam(game.NoTeam)
		}
	}
	slog.Info("room reset", "room", r.Code)
}

// MovePlayer moves a living player during a round. The position is clamped
// to the arena and moves faster than the speed limit are rejected. Returns
// the applied position.
func (r *Room) MovePlayer(playerID string, x, z float64) (zone.Vec2, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.Players[playerID]
	if !ok {
		return zone.Vec2{}, ErrNotInRoom
	}
	if r.State != game.StatePlaying {
		return zone.Vec2{}, ErrNotPlaying
	}
	if !p.Alive {
		return zone.Vec2{}, ErrEliminated
	}

	x, z = game.ClampPosition(x, z)
	to := zone.Vec2{X: x, Z: z}
	now := time.Now()
	if !game.ValidMove(p.Position(), to, p.LastMoveTime, now) {
		return zone.Vec2{}, ErrTooFast
	}

	p.SetPosition(x, z)
	p.LastMoveTime = now
	return to, nil
}

// Elapsed returns the round clock, or zero outside a round.
func (r *Room) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.match == nil {
		return 0
	}
	return r.match.Round.Elapsed()
}

// Zone returns the active zone, if any.
func (r *Room) Zone() (zone.Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.match == nil {
		return zone.Zone{}, false
	}
	return r.match.Scheduler.Zone()
}

// queue appends a message to be broadcast once mu is released. Caller must
// hold r.mu.
func (r *Room) queue(msgType string, payload any) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		slog.Error("failed to encode message", "room", r.Code, "type", msgType, "error", err)
		return
	}
	r.outbox = append(r.outbox, msg)
}

// takeOutbox drains the pending messages. Caller must hold r.mu.
func (r *Room) takeOutbox() []ws.Message {
	pending := r.outbox
	r.outbox = nil
	return pending
}

// PrepareGame builds the round, spawns the players and transitions to playing.
// Must be called before broadcasting round_start so clients receive correct
// positions.
func (r *Room) PrepareGame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.State = game.StatePlaying
	r.result = nil
	r.stopCh = make(chan struct{})

	m := game.NewMatch(r.opts.Settings, r.opts.Zone, r.rng)
	m.Round.OnSpawn = func(p *game.Player) {
		r.queue(ws.TypePlayerSpawned, ws.PlayerSpawnedMessage{
			PlayerID: p.ID,
			X:        p.X,
			Z:        p.Z,
			Lives:    p.Lives,
		})
	}
	m.Round.OnDelayedJoin = func(p *game.Player) {
		r.queue(ws.TypePlayerDelayedJoin, ws.PlayerDelayedJoinMessage{PlayerID: p.ID})
	}
	m.Round.OnEnd = func(res *game.RoundResult) {
		r.result = res
	}
	m.OnZoneEvent = r.queueZoneEvent
	r.match = m

	for _, p := range r.playerList() {
		p.Ready = false
		m.Round.AddPlayer(p)
	}
	m.Begin()

	slog.Info("game prepared", "room", r.Code, "round", m.Round.ID, "players", len(r.Players))
}

// StartGameLoop starts the game tick loop. Must be called after PrepareGame and broadcasting round_start.
func (r *Room) StartGameLoop() {
	go r.gameLoop()
}

// StopGame ends the round, broadcasts game_over and stores the result. A nil
// result ends the round early with the standings so far. Calling it on a room
// that is not playing does nothing.
func (r *Room) StopGame(result *game.RoundResult) {
	r.mu.Lock()

	if r.State != game.StatePlaying {
		r.mu.Unlock()
		return
	}

	r.State = game.StateEnded

	// Signal the game loop to stop
	select {
	case <-r.stopCh:
		// Already closed
	default:
		close(r.stopCh)
	}

	if r.match != nil {
		r.match.Stop()
	}
	if result == nil {
		result = r.result
	}
	pending := r.takeOutbox()
	r.mu.Unlock()

	r.broadcastAll(pending)

	if result == nil {
		slog.Warn("game stopped without a result", "room", r.Code)
		return
	}

	msg, _ := ws.NewMessage(ws.TypeGameOver, gameOverMessage{Result: result})
	r.BroadcastMessage(msg)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.opts.Results.SaveRound(ctx, r.Code, result); err != nil {
		slog.Error("failed to save round", "room", r.Code, "round", result.ID, "error", err)
	}

	if r.opts.ResetDelay > 0 {
		time.AfterFunc(r.opts.ResetDelay, r.Reset)
	}

	slog.Info("game ended", "room", r.Code, "round", result.ID, "duration", result.Duration)
}

type gameOverMessage struct {
	Result *game.RoundResult `json:"result"`
}

type gameStateMessage struct {
	Elapsed float64            `json:"elapsed"`
	Zone    *zone.Zone         `json:"zone,omitempty"`
	Players []playerStateEntry `json:"players"`
}

type playerStateEntry struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Team  int     `json:"team"`
	Lives int     `json:"lives"`
	Alive bool    `json:"alive"`
}

// snapshot builds the game_state payload. Caller must hold r.mu.
func (r *Room) snapshot() gameStateMessage {
	players := make([]playerStateEntry, 0, len(r.order))
	for _, p := range r.playerList() {
		players = append(players, playerStateEntry{
			ID:    p.ID,
			X:     p.X,
			Z:     p.Z,
			Team:  p.Team,
			Lives: p.Lives,
			Alive: p.Alive,
		})
	}
	state := gameStateMessage{
		Elapsed: r.match.Round.Elapsed().Seconds(),
		Players: players,
	}
	if z, ok := r.match.Scheduler.Zone(); ok {
		state.Zone = &z
	}
	return state
}

// gameLoop advances the round clock at TickRate. All zone and round timers
// run inside Advance on this goroutine, under the room lock.
func (r *Room) gameLoop() {
	ticker := time.NewTicker(game.TickInterval)
	defer ticker.Stop()

	r.mu.RLock()
	stopCh := r.stopCh
	r.mu.RUnlock()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if r.tick(game.TickInterval) {
				return
			}
		}
	}
}

// tick advances the match by d and broadcasts what happened. Returns true
// once the round is over.
func (r *Room) tick(d time.Duration) bool {
	r.mu.Lock()
	if r.State != game.StatePlaying || r.match == nil {
		r.mu.Unlock()
		return true
	}

	r.match.Advance(d)
	pending := r.takeOutbox()
	state := r.snapshot()
	result := r.result
	r.mu.Unlock()

	r.broadcastAll(pending)
	msg, _ := ws.NewMessage(ws.TypeGameState, state)
	r.BroadcastMessage(msg)

	if result != nil {
		r.StopGame(result)
		return true
	}
	return false
}
