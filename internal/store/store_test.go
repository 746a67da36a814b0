package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/safezone-server/internal/game"
)

func intPtr(v int) *int { return &v }

func sampleResult(id string, endedAt time.Time) *game.RoundResult {
	return &game.RoundResult{
		ID:       id,
		Mode:     game.ModeTeams,
		Players:  4,
		Duration: 95 * time.Second,
		EndedAt:  endedAt,
		Teams: []game.TeamResult{
			{TeamID: 0, Name: "blue", SurvivalSeconds: intPtr(80)},
			{TeamID: 1, Name: "red", Winner: true},
		},
	}
}

// testResultStore exercises the behavior every ResultStore shares.
func testResultStore(t *testing.T, s ResultStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records, err := s.RecentRounds(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.SaveRound(ctx, "ABC123", sampleResult("round-1", base)))
	require.NoError(t, s.SaveRound(ctx, "XYZ789", sampleResult("round-2", base.Add(time.Minute))))

	records, err = s.RecentRounds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	newest := records[0]
	assert.Equal(t, "round-2", newest.Result.ID)
	assert.Equal(t, "XYZ789", newest.RoomCode)
	assert.Equal(t, game.ModeTeams, newest.Result.Mode)
	assert.Equal(t, 4, newest.Result.Players)
	assert.Equal(t, 95*time.Second, newest.Result.Duration)
	assert.True(t, base.Add(time.Minute).Equal(newest.Result.EndedAt))

	require.Len(t, newest.Result.Teams, 2)
	blue, red := newest.Result.Teams[0], newest.Result.Teams[1]
	assert.Equal(t, "blue", blue.Name)
	require.NotNil(t, blue.SurvivalSeconds)
	assert.Equal(t, 80, *blue.SurvivalSeconds)
	assert.False(t, blue.Winner)
	assert.Nil(t, red.SurvivalSeconds)
	assert.True(t, red.Winner)

	assert.Equal(t, "round-1", records[1].Result.ID)

	limited, err := s.RecentRounds(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "round-2", limited[0].Result.ID)
}

func TestMemoryStore(t *testing.T) {
	testResultStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesTeams(t *testing.T) {
	s := NewMemoryStore()
	res := sampleResult("r", time.Now())
	require.NoError(t, s.SaveRound(context.Background(), "ROOM01", res))

	res.Teams[0].Name = "changed"
	records, err := s.RecentRounds(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "blue", records[0].Result.Teams[0].Name)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	testResultStore(t, s)
}

func TestSQLiteStore_DuplicateRound(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nested", "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	res := sampleResult("dup", time.Now())
	require.NoError(t, s.SaveRound(ctx, "ROOM01", res))
	assert.Error(t, s.SaveRound(ctx, "ROOM01", res))

	records, err := s.RecentRounds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Result.Teams, 2, "failed save must not leave partial rows")
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, defaultRecentLimit, normalizeLimit(0))
	assert.Equal(t, defaultRecentLimit, normalizeLimit(-3))
	assert.Equal(t, defaultRecentLimit, normalizeLimit(1000))
	assert.Equal(t, 5, normalizeLimit(5))
}
