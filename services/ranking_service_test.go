package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRanking creates players with the given win rates in order, the last one an admin.
func seedRanking(t *testing.T, store *repositories.Store) {
	t.Helper()
	ctx := context.Background()
	players := []struct {
		id      string
		name    string
		winRate float64
		admin   bool
	}{
		{"p1", "Ana Souza", 50, false},
		{"p2", "Bia Lima", 75, false},
		{"p3", "Carla Dias", 50, false},
		{"p4", "Root", 100, true},
	}
	for _, p := range players {
		profile := &models.PlayerProfile{ID: p.id, Name: p.name, Email: p.id + "@league.test", IsAdmin: p.admin}
		require.NoError(t, store.Players.Create(ctx, profile))
		require.NoError(t, store.Players.UpdateStats(ctx, p.id, profile.Version, models.PlayerStats{WinRate: p.winRate}))
	}
}

func rankedIDs(players []*models.PlayerProfile) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestGetRanking_ExcludesAdminsAndOrdersTies(t *testing.T) {
	l := newLeague(t)
	seedRanking(t, l.store)

	ranked, err := l.rankings.GetRanking(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1", "p3"}, rankedIDs(ranked))

	top, err := l.rankings.GetRanking(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, rankedIDs(top))
}

type unrankablePlayers struct {
	repositories.PlayerRepository
}

func (unrankablePlayers) ListRanked(context.Context, int) ([]*models.PlayerProfile, error) {
	return nil, repositories.ErrQueryUnavailable
}

func TestGetRanking_FallsBackToInMemoryRanking(t *testing.T) {
	store := repositories.NewMemoryStore()
	seedRanking(t, store)
	rankings := NewRankingService(unrankablePlayers{store.Players}, nil, discardLogger())

	ranked, err := rankings.GetRanking(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, rankedIDs(ranked))
}

func TestGetRanking_NoFallbackAfterCancellation(t *testing.T) {
	store := repositories.NewMemoryStore()
	seedRanking(t, store)
	rankings := NewRankingService(unrankablePlayers{store.Players}, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rankings.GetRanking(ctx, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestGetRanking_RejectsNonPositiveLimit(t *testing.T) {
	l := newLeague(t)
	seedRanking(t, l.store)

	for _, limit := range []int{0, -3} {
		_, err := l.rankings.GetRanking(context.Background(), limit)
		assert.ErrorIs(t, err, ErrInvalidRankingLimit)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	_, err := l.rankings.SearchRanking(context.Background(), 0, "ana")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetRanking_ReturnsEveryEligiblePlayerUpToLimit(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("p%03d", i)
		require.NoError(t, store.Players.Create(ctx, &models.PlayerProfile{ID: id, Name: id, Email: id + "@league.test"}))
	}
	require.NoError(t, store.Players.Create(ctx, &models.PlayerProfile{ID: "root", Name: "Root", Email: "root@league.test", IsAdmin: true}))

	tests := []struct {
		name     string
		rankings RankingService
	}{
		{"store query", NewRankingService(store.Players, nil, discardLogger())},
		{"in-memory fallback", NewRankingService(unrankablePlayers{store.Players}, nil, discardLogger())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked, err := tt.rankings.GetRanking(ctx, 150)
			require.NoError(t, err)
			assert.Len(t, ranked, 120)

			ranked, err = tt.rankings.GetRanking(ctx, 110)
			require.NoError(t, err)
			assert.Len(t, ranked, 110)
		})
	}
}

func TestSearchRanking_KeepsPositions(t *testing.T) {
	l := newLeague(t)
	seedRanking(t, l.store)

	entries, err := l.rankings.SearchRanking(context.Background(), 10, "carla")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Position)
	assert.Equal(t, "p3", entries[0].Player.ID)

	entries, err = l.rankings.SearchRanking(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
