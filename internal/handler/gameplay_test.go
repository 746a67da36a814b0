package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/ws"
)

func TestHandlePlayerMove_ClampedAndBroadcast(t *testing.T) {
	router, rm := setupRouter(game.ModeFFA)
	r, host, guest := createAndJoin(t, router, rm)
	startRound(t, router, host, guest)
	readMessages(guest)

	sendMessage(t, router, host, ws.TypePlayerMove, playerMoveRequest{X: 100, Z: 1})

	var found bool
	for _, msg := range readMessages(guest) {
		if msg.Type != ws.TypePlayerMove {
			continue
		}
		var resp playerMoveResponse
		require.NoError(t, json.Unmarshal(msg.Data, &resp))
		assert.Equal(t, router.GetPlayerID("host"), resp.PlayerID)
		assert.Equal(t, game.ArenaMaxX, resp.X, "x is clamped to the arena")
		assert.Equal(t, 1.0, resp.Z)
		found = true
	}
	assert.True(t, found, "should have received player_move message")

	p, _ := r.Player(router.GetPlayerID("host"))
	assert.Equal(t, game.ArenaMaxX, p.X)
}

func TestHandlePlayerMove_SpeedViolation(t *testing.T) {
	router, rm := setupRouter(game.ModeFFA)
	_, host, guest := createAndJoin(t, router, rm)
	startRound(t, router, host, guest)

	sendMessage(t, router, host, ws.TypePlayerMove, playerMoveRequest{X: game.ArenaMaxX, Z: 0})
	readMessages(host)

	// Crossing the arena in no time at all.
	sendMessage(t, router, host, ws.TypePlayerMove, playerMoveRequest{X: game.ArenaMinX, Z: 0})
	requireError(t, host, "movement too fast")
}

func TestHandlePlayerMove_NotPlaying(t *testing.T) {
	router, rm := setupRouter(game.ModeFFA)
	_, host, _ := createAndJoin(t, router, rm)

	sendMessage(t, router, host, ws.TypePlayerMove, playerMoveRequest{X: 1, Z: 1})
	requireError(t, host, "game is not in progress")
}

func TestHandlePlayerMove_Errors(t *testing.T) {
	router, _ := setupRouter(game.ModeFFA)
	client := newTestClient("c1")

	sendMessage(t, router, client, ws.TypePlayerMove, playerMoveRequest{X: 1})
	requireError(t, client, "not in a room")

	sendMessage(t, router, client, ws.TypePlayerMove, "north")
	requireError(t, client, "invalid move data")
}
