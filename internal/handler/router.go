package handler

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/ws"
)

type handlerFunc func(client *ws.Client, msg ws.Message)

// session binds a connection to the player and room it joined.
type session struct {
	PlayerID string
	RoomCode string
}

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	rm       *room.Manager
	lobby    *LobbyHandler
	gameplay *GameplayHandler
	routes   map[string]handlerFunc

	// sessions tracks client ID -> session, shared across handlers.
	sessions map[string]session
	mu       sync.RWMutex
}

// NewRouter creates a new message router.
func NewRouter(rm *room.Manager) *Router {
	r := &Router{
		rm:       rm,
		sessions: make(map[string]session),
	}
	r.lobby = NewLobbyHandler(rm, r)
	r.gameplay = NewGameplayHandler(rm, r)
	r.routes = map[string]handlerFunc{
		ws.TypeCreateRoom:  r.lobby.HandleCreateRoom,
		ws.TypeJoinRoom:    r.lobby.HandleJoinRoom,
		ws.TypeLeaveRoom:   r.lobby.HandleLeaveRoom,
		ws.TypeSelectTeam:  r.lobby.HandleSelectTeam,
		ws.TypePlayerReady: r.lobby.HandlePlayerReady,
		ws.TypePlayerMove:  r.gameplay.HandlePlayerMove,
	}
	return r
}

func (r *Router) bind(clientID, playerID, roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[clientID] = session{PlayerID: playerID, RoomCode: roomCode}
}

func (r *Router) unbind(clientID string) (session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[clientID]
	delete(r.sessions, clientID)
	return s, ok
}

// GetPlayerID returns the player ID for a client, or empty string if not found.
func (r *Router) GetPlayerID(clientID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[clientID].PlayerID
}

// roomFor resolves the room a client's player is in. It returns nil once the
// room is gone or no longer holds the player.
func (r *Router) roomFor(client *ws.Client) (*room.Room, string) {
	r.mu.RLock()
	s, ok := r.sessions[client.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, ""
	}
	rm := r.rm.GetRoom(s.RoomCode)
	if rm == nil || !rm.HasPlayer(s.PlayerID) {
		return nil, s.PlayerID
	}
	return rm, s.PlayerID
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	handle, ok := r.routes[msg.Type]
	if !ok {
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
		return
	}
	handle(cm.Client, msg)
}

// HandleDisconnect removes the client's player from its room.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.lobby.HandleDisconnect(client)
}
