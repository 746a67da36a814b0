package store

import (
	"context"
	"sync"

	"github.com/ugaemi/safezone-server/internal/game"
)

// MemoryStore keeps round results in process. Used when no database is
// configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []RoundRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveRound(_ context.Context, roomCode string, result *game.RoundResult) error {
	rec := RoundRecord{RoomCode: roomCode, Result: *result}
	rec.Result.Teams = append([]game.TeamResult(nil), result.Teams...)

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RecentRounds(_ context.Context, limit int) ([]RoundRecord, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RoundRecord, 0, min(limit, len(s.records)))
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
