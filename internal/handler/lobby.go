package handler

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/ws"
	"github.com/ugaemi/safezone-server/internal/zone"
)

const maxNicknameLength = 16

// LobbyHandler handles lobby-related messages.
type LobbyHandler struct {
	rm     *room.Manager
	router *Router
}

// NewLobbyHandler creates a new lobby handler.
func NewLobbyHandler(rm *room.Manager, router *Router) *LobbyHandler {
	return &LobbyHandler{
		rm:     rm,
		router: router,
	}
}

type createRoomRequest struct {
	Nickname string `json:"nickname"`
}

type createRoomResponse struct {
	Code     string        `json:"code"`
	PlayerID string        `json:"player_id"`
	Settings game.Settings `json:"settings"`
}

func validNickname(nickname string) (string, bool) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len([]rune(nickname)) > maxNicknameLength {
		return "", false
	}
	return nickname, true
}

// HandleCreateRoom handles room creation.
func (h *LobbyHandler) HandleCreateRoom(client *ws.Client, msg ws.Message) {
	var req createRoomRequest
	nickname, ok := "", false
	if err := json.Unmarshal(msg.Data, &req); err == nil {
		nickname, ok = validNickname(req.Nickname)
	}
	if !ok {
		client.SendMessage(ws.NewErrorMessage("nickname is required"))
		return
	}
	if h.router.GetPlayerID(client.ID) != "" {
		client.SendMessage(ws.NewErrorMessage("already in a room"))
		return
	}

	r := h.rm.CreateRoom()
	player := game.NewPlayer(nickname)
	r.AddPlayer(player, client)
	h.router.bind(client.ID, player.ID, r.Code)

	resp, _ := ws.NewMessage(ws.TypeCreateRoom, createRoomResponse{
		Code:     r.Code,
		PlayerID: player.ID,
		Settings: r.Settings(),
	})
	client.SendMessage(resp)
	h.broadcastRoomInfo(r)

	slog.Info("player created room", "player", player.Nickname, "room", r.Code)
}

type joinRoomRequest struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

// HandleJoinRoom handles joining an existing room. Joining a room mid-round
// is allowed; the player sits the round out.
func (h *LobbyHandler) HandleJoinRoom(client *ws.Client, msg ws.Message) {
	var req joinRoomRequest
	nickname, ok := "", false
	if err := json.Unmarshal(msg.Data, &req); err == nil && req.Code != "" {
		nickname, ok = validNickname(req.Nickname)
	}
	if !ok {
		client.SendMessage(ws.NewErrorMessage("code and nickname are required"))
		return
	}
	if h.router.GetPlayerID(client.ID) != "" {
		client.SendMessage(ws.NewErrorMessage("already in a room"))
		return
	}

	r := h.rm.GetRoom(room.NormalizeCode(req.Code))
	if r == nil {
		client.SendMessage(ws.NewErrorMessage("room not found"))
		return
	}

	player := game.NewPlayer(nickname)
	if !r.AddPlayer(player, client) {
		client.SendMessage(ws.NewErrorMessage("room is full"))
		return
	}
	h.router.bind(client.ID, player.ID, r.Code)

	resp, _ := ws.NewMessage(ws.TypeJoinRoom, createRoomResponse{
		Code:     r.Code,
		PlayerID: player.ID,
		Settings: r.Settings(),
	})
	client.SendMessage(resp)

	h.broadcastRoomInfo(r)

	slog.Info("player joined room", "player", player.Nickname, "room", r.Code)
}

type selectTeamRequest struct {
	Team string `json:"team"` // "blue" or "red"
}

// HandleSelectTeam handles team selection.
func (h *LobbyHandler) HandleSelectTeam(client *ws.Client, msg ws.Message) {
	var req selectTeamRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid team selection"))
		return
	}

	r, playerID := h.router.roomFor(client)
	if r == nil {
		client.SendMessage(ws.NewErrorMessage("not in a room"))
		return
	}

	team, ok := game.ParseTeam(req.Team)
	if !ok {
		client.SendMessage(ws.NewErrorMessage("invalid team"))
		return
	}
	if err := r.SelectTeam(playerID, team); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}
	h.broadcastRoomInfo(r)

	slog.Info("player selected team", "player", playerID, "team", req.Team)
}

type playerReadyRequest struct {
	Ready *bool `json:"ready"`
}

// HandlePlayerReady handles player ready status. The round starts once
// everyone is ready.
func (h *LobbyHandler) HandlePlayerReady(client *ws.Client, msg ws.Message) {
	r, playerID := h.router.roomFor(client)
	if r == nil {
		client.SendMessage(ws.NewErrorMessage("not in a room"))
		return
	}

	ready := true
	var req playerReadyRequest
	if len(msg.Data) > 0 && json.Unmarshal(msg.Data, &req) == nil && req.Ready != nil {
		ready = *req.Ready
	}

	allReady := r.SetPlayerReady(playerID, ready)
	h.broadcastRoomInfo(r)

	slog.Info("player ready", "player", playerID, "room", r.Code, "ready", ready)

	if allReady {
		h.startRound(r)
	}
}

type roundStartResponse struct {
	Settings     game.Settings `json:"settings"`
	Players      []game.Player `json:"players"`
	ZoneBounds   zone.Bounds   `json:"zone_bounds"`
	ZoneDelayMS  int64         `json:"zone_delay_ms"`
	TickInterval int64         `json:"tick_interval_ms"`
}

func (h *LobbyHandler) startRound(r *room.Room) {
	r.PrepareGame()

	cfg := r.ZoneConfig()
	startMsg, _ := ws.NewMessage(ws.TypeRoundStart, roundStartResponse{
		Settings:     r.Settings(),
		Players:      r.PlayerStates(),
		ZoneBounds:   cfg.Bounds,
		ZoneDelayMS:  cfg.StartDelay.Milliseconds(),
		TickInterval: game.TickInterval.Milliseconds(),
	})
	r.BroadcastMessage(startMsg)
	r.StartGameLoop()

	slog.Info("all players ready, round starting", "room", r.Code)
}

// HandleLeaveRoom handles a player leaving a room.
func (h *LobbyHandler) HandleLeaveRoom(client *ws.Client, _ ws.Message) {
	h.removePlayer(client)
}

// HandleDisconnect handles client disconnection.
func (h *LobbyHandler) HandleDisconnect(client *ws.Client) {
	h.removePlayer(client)
}

func (h *LobbyHandler) removePlayer(client *ws.Client) {
	s, ok := h.router.unbind(client.ID)
	if !ok {
		return
	}

	if r := h.rm.GetRoom(s.RoomCode); r != nil {
		r.RemovePlayer(s.PlayerID)
		if r.IsEmpty() {
			h.rm.RemoveRoom(r.Code)
		} else {
			h.broadcastRoomInfo(r)
		}
	}

	slog.Info("player left", "player", s.PlayerID, "room", s.RoomCode)
}

type roomInfoResponse struct {
	Code    string        `json:"code"`
	State   string        `json:"state"`
	Mode    string        `json:"mode"`
	Players []game.Player `json:"players"`
	HostID  string        `json:"host_id"`
}

func (h *LobbyHandler) broadcastRoomInfo(r *room.Room) {
	state, hostID := r.Info()
	resp, _ := ws.NewMessage(ws.TypeRoomInfo, roomInfoResponse{
		Code:    r.Code,
		State:   state.String(),
		Mode:    r.Settings().Mode.String(),
		Players: r.PlayerStates(),
		HostID:  hostID,
	})
	r.BroadcastMessage(resp)
}
