package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ugaemi/safezone-server/internal/game"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rounds (
    id TEXT PRIMARY KEY,
    room_code TEXT NOT NULL,
    mode TEXT NOT NULL,
    players INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    ended_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at DESC);
CREATE TABLE IF NOT EXISTS round_teams (
    round_id TEXT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    team_id INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    survival_seconds INTEGER,
    winner INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (round_id, team_id)
);
`

// SQLiteStore implements ResultStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and runs the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveRound inserts the round and its teams in one transaction.
func (s *SQLiteStore) SaveRound(ctx context.Context, roomCode string, result *game.RoundResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (id, room_code, mode, players, duration_ms, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID, roomCode, result.Mode.String(), result.Players,
		result.Duration.Milliseconds(), result.EndedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("store: insert round: %w", err)
	}

	for _, t := range result.Teams {
		var survival sql.NullInt64
		if t.SurvivalSeconds != nil {
			survival = sql.NullInt64{Int64: int64(*t.SurvivalSeconds), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO round_teams (round_id, team_id, name, survival_seconds, winner)
			 VALUES (?, ?, ?, ?, ?)`,
			result.ID, t.TeamID, t.Name, survival, t.Winner)
		if err != nil {
			return fmt.Errorf("store: insert team: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// RecentRounds returns the most recently ended rounds.
func (s *SQLiteStore) RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_code, mode, players, duration_ms, ended_at
		 FROM rounds ORDER BY ended_at DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: query rounds: %w", err)
	}
	defer rows.Close()

	var records []RoundRecord
	for rows.Next() {
		var (
			rec        RoundRecord
			mode       string
			durationMS int64
			endedAt    int64
		)
		if err := rows.Scan(&rec.Result.ID, &rec.RoomCode, &mode, &rec.Result.Players, &durationMS, &endedAt); err != nil {
			return nil, fmt.Errorf("store: scan round: %w", err)
		}
		rec.Result.Mode, _ = game.ParseMode(mode)
		rec.Result.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Result.EndedAt = time.UnixMilli(endedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate rounds: %w", err)
	}
	rows.Close()

	for i := range records {
		teams, err := s.teams(ctx, records[i].Result.ID)
		if err != nil {
			return nil, err
		}
		records[i].Result.Teams = teams
	}
	return records, nil
}

func (s *SQLiteStore) teams(ctx context.Context, roundID string) ([]game.TeamResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team_id, name, survival_seconds, winner
		 FROM round_teams WHERE round_id = ? ORDER BY team_id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("store: query teams: %w", err)
	}
	defer rows.Close()

	var teams []game.TeamResult
	for rows.Next() {
		var (
			t        game.TeamResult
			survival sql.NullInt64
		)
		if err := rows.Scan(&t.TeamID, &t.Name, &survival, &t.Winner); err != nil {
			return nil, fmt.Errorf("store: scan team: %w", err)
		}
		if survival.Valid {
			secs := int(survival.Int64)
			t.SurvivalSeconds = &secs
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate teams: %w", err)
	}
	return teams, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
