package room

import (
	"log/slog"
	"sort"
	"sync"
)

// Manager manages all active rooms.
type Manager struct {
	rooms map[string]*Room // code -> room
	opts  Options
	mu    sync.RWMutex
}

// NewManager creates a room manager whose rooms use opts.
func NewManager(opts Options) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// CreateRoom creates a new room and returns it.
func (m *Manager) CreateRoom() *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]bool, len(m.rooms))
	for code := range m.rooms {
		existing[code] = true
	}

	code := GenerateCode(existing)
	opts := m.opts
	if opts.Seed != 0 {
		// distinct but reproducible per room
		opts.Seed += int64(len(m.rooms))
	}
	room := NewRoom(code, opts)
	m.rooms[code] = room

	slog.Info("room created", "code", code)
	return room
}

// GetRoom returns a room by its code.
func (m *Manager) GetRoom(code string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[code]
}

// RemoveRoom removes a room by its code, stopping any round in progress.
func (m *Manager) RemoveRoom(code string) {
	m.mu.Lock()
	room, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()

	if !ok {
		return
	}
	room.StopGame(nil)
	slog.Info("room removed", "code", code)
}

// RoomCount returns the number of active rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// FindRoomByPlayerID finds the room containing a player.
func (m *Manager) FindRoomByPlayerID(playerID string) *Room {
	if playerID == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, room := range m.rooms {
		if room.HasPlayer(playerID) {
			return room
		}
	}
	return nil
}

// Summary is the public listing entry for a room.
type Summary struct {
	Code    string `json:"code"`
	State   string `json:"state"`
	Mode    string `json:"mode"`
	Players int    `json:"players"`
}

// List returns a summary of every room, ordered by code.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.RLock()
		out = append(out, Summary{
			Code:    r.Code,
			State:   r.State.String(),
			Mode:    r.opts.Settings.Mode.String(),
			Players: len(r.Players),
		})
		r.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Shutdown stops every round in progress so results are persisted.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.StopGame(nil)
	}
}
