package store

import (
	"context"

	"github.com/ugaemi/safezone-server/internal/game"
)

// ResultStore defines the interface for persistent round results.
type ResultStore interface {
	// SaveRound records a finished round and its team results.
	SaveRound(ctx context.Context, roomCode string, result *game.RoundResult) error
	// RecentRounds returns up to limit rounds, newest first.
	RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error)
	// Close releases database resources.
	Close() error
}

// RoundRecord is a stored round.
type RoundRecord struct {
	RoomCode string           `json:"room_code"`
	Result   game.RoundResult `json:"result"`
}

const defaultRecentLimit = 20

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return defaultRecentLimit
	}
	return limit
}
