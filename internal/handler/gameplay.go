package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/ws"
)

// GameplayHandler handles in-game messages.
type GameplayHandler struct {
	rm     *room.Manager
	router *Router
}

// NewGameplayHandler creates a new gameplay handler.
func NewGameplayHandler(rm *room.Manager, router *Router) *GameplayHandler {
	return &GameplayHandler{rm: rm, router: router}
}

type playerMoveRequest struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

type playerMoveResponse struct {
	PlayerID string  `json:"player_id"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
}

// HandlePlayerMove applies a movement update and relays it to the room.
// Positions outside the arena are clamped rather than rejected.
func (h *GameplayHandler) HandlePlayerMove(client *ws.Client, msg ws.Message) {
	var req playerMoveRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid move data"))
		return
	}

	r, playerID := h.router.roomFor(client)
	if r == nil {
		client.SendMessage(ws.NewErrorMessage("not in a room"))
		return
	}

	pos, err := r.MovePlayer(playerID, req.X, req.Z)
	if err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}

	resp, _ := ws.NewMessage(ws.TypePlayerMove, playerMoveResponse{
		PlayerID: playerID,
		X:        pos.X,
		Z:        pos.Z,
	})
	r.BroadcastMessage(resp)

	slog.Debug("player moved", "player", playerID, "x", pos.X, "z", pos.Z)
}
