package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	Room    string
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(room, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Room: room, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type league struct {
	store       *repositories.Store
	events      *recordingPublisher
	tournaments TournamentService
	matches     MatchService
	results     ResultService
	rankings    RankingService
	players     PlayerService
	dashboard   DashboardService
}

func newLeague(t *testing.T) *league {
	t.Helper()
	store := repositories.NewMemoryStore()
	events := &recordingPublisher{}
	logger := discardLogger()
	tournaments := NewTournamentService(store.Tournaments, store.Matches, store.Players, events, logger)
	return &league{
		store:       store,
		events:      events,
		tournaments: tournaments,
		matches:     NewMatchService(store.Matches, store.Tournaments, events, logger),
		results:     NewResultService(store.Matches, store.Tournaments, store.Players, tournaments, events, logger),
		rankings:    NewRankingService(store.Players, nil, logger),
		players:     NewPlayerService(store.Players, nil, logger),
		dashboard:   NewDashboardService(store.Players, store.Tournaments, store.Matches),
	}
}

func newProfile(id string) *models.PlayerProfile {
	return &models.PlayerProfile{ID: id, Name: id, Email: id + "@league.test"}
}

func (l *league) addPlayer(t *testing.T, id, name string) *models.PlayerProfile {
	t.Helper()
	p := &models.PlayerProfile{ID: id, Name: name, Email: id + "@league.test"}
	require.NoError(t, l.store.Players.Create(context.Background(), p))
	return p
}

// activeTournament creates a running tournament with every given player registered.
func (l *league) activeTournament(t *testing.T, categories []string, playerIDs ...string) *models.Tournament {
	t.Helper()
	tournament := l.tournamentStarting(t, time.Now().Add(-time.Hour), categories, playerIDs...)
	require.Equal(t, models.StatusActive, tournament.Status)
	return tournament
}

// upcomingTournament creates a tournament starting tomorrow with every given player registered.
func (l *league) upcomingTournament(t *testing.T, categories []string, playerIDs ...string) *models.Tournament {
	t.Helper()
	tournament := l.tournamentStarting(t, time.Now().Add(24*time.Hour), categories, playerIDs...)
	require.Equal(t, models.StatusUpcoming, tournament.Status)
	return tournament
}

func (l *league) tournamentStarting(t *testing.T, start time.Time, categories []string, playerIDs ...string) *models.Tournament {
	t.Helper()
	ctx := context.Background()
	tournament, err := l.tournaments.CreateTournament(ctx, "admin", CreateTournamentInput{
		Name:       "Ipanema Cup",
		Location:   "Rio",
		StartDate:  start,
		EndDate:    start.Add(48 * time.Hour),
		Categories: categories,
	})
	require.NoError(t, err)
	for _, id := range playerIDs {
		require.NoError(t, l.tournaments.RegisterPlayer(ctx, tournament.ID, id))
	}
	return tournament
}

// closeTournament marks an active tournament completed directly in the store.
func (l *league) closeTournament(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, l.store.Tournaments.UpdateStatus(context.Background(), id, models.StatusActive, models.StatusCompleted))
}

func (l *league) scheduleMatch(t *testing.T, tournamentID, category, round string, team1, team2 []string) *models.Match {
	t.Helper()
	match, err := l.matches.CreateMatch(context.Background(), CreateMatchInput{
		TournamentID: tournamentID,
		Category:     category,
		Round:        round,
		Team1:        team1,
		Team2:        team2,
		Date:         time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	return match
}

func (l *league) stats(t *testing.T, playerID string) models.PlayerStats {
	t.Helper()
	p, err := l.store.Players.GetByID(context.Background(), playerID)
	require.NoError(t, err)
	return p.Stats
}
