package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ugaemi/safezone-server/internal/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS rounds (
    id TEXT PRIMARY KEY,
    room_code TEXT NOT NULL,
    mode TEXT NOT NULL,
    players INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    ended_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at DESC);
CREATE TABLE IF NOT EXISTS round_teams (
    round_id TEXT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    team_id INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    survival_seconds INTEGER,
    winner BOOLEAN NOT NULL DEFAULT false,
    PRIMARY KEY (round_id, team_id)
);
`

// PostgresStore implements ResultStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// SaveRound inserts the round and its teams in one transaction.
func (s *PostgresStore) SaveRound(ctx context.Context, roomCode string, result *game.RoundResult) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO rounds (id, room_code, mode, players, duration_ms, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			result.ID, roomCode, result.Mode.String(), result.Players,
			result.Duration.Milliseconds(), result.EndedAt)
		if err != nil {
			return fmt.Errorf("store: insert round: %w", err)
		}

		batch := &pgx.Batch{}
		for _, t := range result.Teams {
			batch.Queue(
				`INSERT INTO round_teams (round_id, team_id, name, survival_seconds, winner)
				 VALUES ($1, $2, $3, $4, $5)`,
				result.ID, t.TeamID, t.Name, t.SurvivalSeconds, t.Winner)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("store: insert teams: %w", err)
		}
		return nil
	})
}

// RecentRounds returns the most recently ended rounds.
func (s *PostgresStore) RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_code, mode, players, duration_ms, ended_at
		 FROM rounds ORDER BY ended_at DESC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: query rounds: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRound)
	if err != nil {
		return nil, fmt.Errorf("store: scan rounds: %w", err)
	}

	for i := range records {
		teams, err := s.teams(ctx, records[i].Result.ID)
		if err != nil {
			return nil, err
		}
		records[i].Result.Teams = teams
	}
	return records, nil
}

func (s *PostgresStore) teams(ctx context.Context, roundID string) ([]game.TeamResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT team_id, name, survival_seconds, winner
		 FROM round_teams WHERE round_id = $1 ORDER BY team_id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("store: query teams: %w", err)
	}
	teams, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (game.TeamResult, error) {
		var t game.TeamResult
		err := row.Scan(&t.TeamID, &t.Name, &t.SurvivalSeconds, &t.Winner)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan teams: %w", err)
	}
	return teams, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanRound(row pgx.CollectableRow) (RoundRecord, error) {
	var (
		rec        RoundRecord
		mode       string
		durationMS int64
	)
	err := row.Scan(&rec.Result.ID, &rec.RoomCode, &mode, &rec.Result.Players, &durationMS, &rec.Result.EndedAt)
	if err != nil {
		return rec, err
	}
	rec.Result.Mode, _ = game.ParseMode(mode)
	rec.Result.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
