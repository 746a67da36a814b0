package room

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/store"
	"github.com/ugaemi/safezone-server/internal/ws"
	"github.com/ugaemi/safezone-server/internal/zone"
)

// mockClient creates a ws.Client with a buffered Send channel for testing.
func mockClient(id string) *ws.Client {
	return &ws.Client{
		ID:   id,
		Send: make(chan []byte, 1024),
	}
}

// drainMessages reads all pending messages from a client's send channel.
func drainMessages(client *ws.Client) []ws.Message {
	var msgs []ws.Message
	for {
		select {
		case data := <-client.Send:
			var msg ws.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				msgs = append(msgs, msg)
			}
		default:
			return msgs
		}
	}
}

// findMessageByType finds the first message of a given type.
func findMessageByType(msgs []ws.Message, msgType string) *ws.Message {
	for _, m := range msgs {
		if m.Type == msgType {
			return &m
		}
	}
	return nil
}

func countMessages(msgs []ws.Message, msgType string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

// testOptions keeps the zone still so positions set by tests stay meaningful.
func testOptions() Options {
	opts := DefaultOptions()
	opts.Zone.RelocateInterval = time.Hour
	opts.ResetDelay = 0
	opts.Seed = 7
	return opts
}

func setupTestRoom(opts Options) (*Room, []*ws.Client) {
	r := NewRoom("TEST", opts)
	c1 := mockClient("client1")
	c2 := mockClient("client2")

	p1 := &game.Player{ID: "p1", Nickname: "Near", Team: game.NoTeam, Ready: true}
	p2 := &game.Player{ID: "p2", Nickname: "Far", Team: game.NoTeam, Ready: true}

	r.AddPlayer(p1, c1)
	r.AddPlayer(p2, c2)

	return r, []*ws.Client{c1, c2}
}

func TestPrepareGame_SpawnsPlayers(t *testing.T) {
	r, clients := setupTestRoom(testOptions())
	r.PrepareGame()
	defer r.StopGame(nil)

	assert.Equal(t, game.StatePlaying, r.State)
	for _, p := range r.GetPlayerList() {
		assert.True(t, p.Alive)
		assert.Equal(t, game.DefaultLivesPerPlayer, p.Lives)
		assert.True(t, game.InArena(p.X, p.Z))
		assert.False(t, p.Ready)
	}

	// Spawn notices go out with the first tick.
	assert.Empty(t, drainMessages(clients[0]))
	require.False(t, r.tick(game.TickInterval))

	msgs := drainMessages(clients[0])
	assert.Equal(t, 2, countMessages(msgs, ws.TypePlayerSpawned))
	assert.NotNil(t, findMessageByType(msgs, ws.TypeGameState))
}

func TestGameLoop_ZoneSpawnsAfterStartDelay(t *testing.T) {
	r, clients := setupTestRoom(testOptions())
	r.PrepareGame()
	defer r.StopGame(nil)

	r.tick(4 * time.Second)
	_, ok := r.Zone()
	assert.False(t, ok)
	drainMessages(clients[1])

	r.tick(time.Second)
	z, ok := r.Zone()
	require.True(t, ok)
	assert.Equal(t, 2, z.ParticipantCountAtSpawn)
	assert.Equal(t, 4, z.RemainingTicks)

	msgs := drainMessages(clients[1])
	spawned := findMessageByType(msgs, ws.TypeZoneSpawned)
	require.NotNil(t, spawned)

	var payload ws.ZoneSpawnedMessage
	require.NoError(t, json.Unmarshal(spawned.Data, &payload))
	assert.InDelta(t, 1.6, payload.Zone.CurrentRadius, 1e-9)
	assert.InDelta(t, 1.9, payload.Zone.LimitRadius, 1e-9)
	assert.InDelta(t, 1.4, payload.Threshold, 1e-9)

	var state gameStateMessage
	require.NoError(t, json.Unmarshal(findMessageByType(msgs, ws.TypeGameState).Data, &state))
	require.NotNil(t, state.Zone)
	assert.InDelta(t, 5.0, state.Elapsed, 1e-9)
}

func TestGameLoop_ZoneEliminationEndsRound(t *testing.T) {
	opts := testOptions()
	opts.Settings.LivesPerPlayer = 1
	results := store.NewMemoryStore()
	opts.Results = results

	r, clients := setupTestRoom(opts)
	r.PrepareGame()

	require.False(t, r.tick(5*time.Second))
	z, ok := r.Zone()
	require.True(t, ok)
	_, err := r.MovePlayer("p1", z.Center.X, z.Center.Z)
	require.NoError(t, err)
	_, err = r.MovePlayer("p2", z.Center.X+5, z.Center.Z)
	require.NoError(t, err)
	drainMessages(clients[0])

	// The first zone tick at 6s eliminates p2.
	require.False(t, r.tick(time.Second))
	msgs := drainMessages(clients[0])
	assert.Equal(t, 1, countMessages(msgs, ws.TypeCountdown))
	assert.Equal(t, 1, countMessages(msgs, ws.TypeZoneWarning))

	elim := findMessageByType(msgs, ws.TypePlayerEliminated)
	require.NotNil(t, elim)
	var ev ws.PlayerEliminatedMessage
	require.NoError(t, json.Unmarshal(elim.Data, &ev))
	assert.Equal(t, "p2", ev.PlayerID)
	assert.Equal(t, 0, ev.Lives)
	assert.Greater(t, ev.Distance, 1.4)

	p2, _ := r.Player("p2")
	assert.False(t, p2.Alive)
	_, err = r.MovePlayer("p2", 0, 0)
	assert.ErrorIs(t, err, ErrEliminated)

	// The living-team poll at 7s ends the round half a second later.
	assert.False(t, r.tick(time.Second))
	assert.True(t, r.tick(time.Second))
	assert.Equal(t, game.StateEnded, r.State)

	msgs = drainMessages(clients[1])
	over := findMessageByType(msgs, ws.TypeGameOver)
	require.NotNil(t, over)
	var payload gameOverMessage
	require.NoError(t, json.Unmarshal(over.Data, &payload))
	require.Len(t, payload.Result.Teams, 2)

	p1, _ := r.Player("p1")
	assert.True(t, payload.Result.Teams[p1.Team].Winner)
	assert.Equal(t, 6, *payload.Result.Teams[p2.Team].SurvivalSeconds)

	records, err := results.RecentRounds(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TEST", records[0].RoomCode)
	assert.Equal(t, payload.Result.ID, records[0].Result.ID)
}

func TestStopGame_EarlyStopPersistsStandings(t *testing.T) {
	opts := testOptions()
	results := store.NewMemoryStore()
	opts.Results = results

	r, clients := setupTestRoom(opts)
	r.PrepareGame()
	r.tick(3 * time.Second)

	r.StopGame(nil)
	assert.Equal(t, game.StateEnded, r.State)

	over := findMessageByType(drainMessages(clients[0]), ws.TypeGameOver)
	require.NotNil(t, over)

	records, err := results.RecentRounds(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3*time.Second, records[0].Result.Duration)
	for _, team := range records[0].Result.Teams {
		assert.True(t, team.Winner, "everyone still alive shares the win")
	}
}

func TestStopGame_DoubleStopSafe(t *testing.T) {
	opts := testOptions()
	results := store.NewMemoryStore()
	opts.Results = results

	r, clients := setupTestRoom(opts)
	r.PrepareGame()
	r.StartGameLoop()

	r.StopGame(nil)
	r.StopGame(nil)
	assert.True(t, r.tick(game.TickInterval), "ticks after stop are no-ops")

	assert.Equal(t, 1, countMessages(drainMessages(clients[0]), ws.TypeGameOver))
	records, _ := results.RecentRounds(context.Background(), 10)
	assert.Len(t, records, 1)
}

func TestStopGame_NotPlayingIgnored(t *testing.T) {
	r, clients := setupTestRoom(testOptions())
	r.StopGame(nil)
	assert.Equal(t, game.StateWaiting, r.State)
	assert.Empty(t, drainMessages(clients[0]))
}

func TestGameLoop_BroadcastsGameState(t *testing.T) {
	r, clients := setupTestRoom(testOptions())
	r.PrepareGame()
	r.StartGameLoop()
	defer r.StopGame(nil)

	var got *ws.Message
	assert.Eventually(t, func() bool {
		got = findMessageByType(drainMessages(clients[0]), ws.TypeGameState)
		return got != nil
	}, time.Second, 10*time.Millisecond)
}

func TestAddPlayer_DelayedJoin(t *testing.T) {
	r, clients := setupTestRoom(testOptions())
	r.PrepareGame()
	defer r.StopGame(nil)
	r.tick(2 * time.Second)
	drainMessages(clients[0])

	late := &game.Player{ID: "p3", Nickname: "Late", Team: game.NoTeam}
	require.True(t, r.AddPlayer(late, mockClient("client3")))

	p3, ok := r.Player("p3")
	require.True(t, ok)
	assert.Equal(t, 0, p3.Lives)
	assert.False(t, p3.Alive)

	msg := findMessageByType(drainMessages(clients[0]), ws.TypePlayerDelayedJoin)
	require.NotNil(t, msg)
	var payload ws.PlayerDelayedJoinMessage
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "p3", payload.PlayerID)

	// Sitting out players are not counted by the next zone.
	r.tick(3 * time.Second)
	z, ok := r.Zone()
	require.True(t, ok)
	assert.Equal(t, 2, z.ParticipantCountAtSpawn)
}

func TestReset_AfterDelay(t *testing.T) {
	opts := testOptions()
	opts.ResetDelay = 20 * time.Millisecond
	r, _ := setupTestRoom(opts)
	r.PrepareGame()
	r.StopGame(nil)

	assert.Eventually(t, func() bool {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.State == game.StateWaiting
	}, time.Second, 5*time.Millisecond)

	for _, p := range r.GetPlayerList() {
		assert.Equal(t, game.NoTeam, p.Team)
		assert.Equal(t, 0, p.Lives)
		assert.False(t, p.Ready)
	}
	_, ok := r.Zone()
	assert.False(t, ok)
}

func TestQueueZoneEvent_Mapping(t *testing.T) {
	r := NewRoom("TEST", testOptions())
	r.queueZoneEvent(zone.ZoneRelocated{To: zone.Vec2{X: 1}, Duration: 8 * time.Second})
	r.queueZoneEvent(zone.ZoneRemoved{NextSpawnIn: time.Second})
	r.queueZoneEvent(zone.ParticipantsOutside{IDs: []string{"a"}, Threshold: 2.1})

	msgs := r.takeOutbox()
	require.Len(t, msgs, 3)
	assert.Equal(t, ws.TypeZoneRelocated, msgs[0].Type)
	assert.JSONEq(t, `{"from":{"x":0,"z":0},"to":{"x":1,"z":0},"duration_ms":8000}`, string(msgs[0].Data))
	assert.JSONEq(t, `{"next_spawn_in_ms":1000}`, string(msgs[1].Data))
	assert.JSONEq(t, `{"player_ids":["a"],"threshold":2.1}`, string(msgs[2].Data))
	assert.Empty(t, r.takeOutbox())
}

func TestStopGame_AfterHubStoppedPersistsResult(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	opts := testOptions()
	results := store.NewMemoryStore()
	opts.Results = results

	r := NewRoom("TEST", opts)
	for _, id := range []string{"p1", "p2"} {
		c := ws.NewClient(hub, nil)
		require.True(t, hub.Add(c))
		r.AddPlayer(&game.Player{ID: id, Nickname: id, Team: game.NoTeam, Ready: true}, c)
	}
	r.PrepareGame()
	r.StartGameLoop()

	cancel()
	<-hub.Done()

	assert.NotPanics(t, func() { r.StopGame(nil) })
	assert.Equal(t, game.StateEnded, r.State)

	records, err := results.RecentRounds(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStopGame_BeforeHubStopDeliversGameOver(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := NewRoom("TEST", testOptions())
	c1 := ws.NewClient(hub, nil)
	c2 := ws.NewClient(hub, nil)
	require.True(t, hub.Add(c1))
	require.True(t, hub.Add(c2))
	r.AddPlayer(&game.Player{ID: "p1", Nickname: "a", Team: game.NoTeam}, c1)
	r.AddPlayer(&game.Player{ID: "p2", Nickname: "b", Team: game.NoTeam}, c2)
	r.PrepareGame()

	r.StopGame(nil)
	cancel()
	<-hub.Done()

	// Send is closed by now; reading drains what was queued first.
	var types []string
	for data := range c1.Send {
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		types = append(types, msg.Type)
	}
	assert.Contains(t, types, ws.TypeGameOver)
}
