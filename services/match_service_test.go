package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMatch_Rejections(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	for _, id := range []string{"a", "b", "c"} {
		l.addPlayer(t, id, id)
	}
	l.addPlayer(t, "outsider", "Outsider")
	tournament := l.activeTournament(t, []string{"men"}, "a", "b", "c")
	date := time.Now().Add(time.Hour)

	base := CreateMatchInput{
		TournamentID: tournament.ID,
		Category:     "men",
		Round:        "round-1",
		Team1:        []string{"a"},
		Team2:        []string{"b"},
		Date:         date,
	}
	tests := []struct {
		name   string
		mutate func(in *CreateMatchInput)
		want   error
	}{
		{"blank round", func(in *CreateMatchInput) { in.Round = "  " }, ErrRoundRequired},
		{"no date", func(in *CreateMatchInput) { in.Date = time.Time{} }, ErrMatchDateRequired},
		{"empty team", func(in *CreateMatchInput) { in.Team2 = nil }, ErrInvalidTeams},
		{"player on both sides", func(in *CreateMatchInput) { in.Team2 = []string{"a"} }, ErrInvalidTeams},
		{"duplicate in team", func(in *CreateMatchInput) { in.Team1 = []string{"a", "a"} }, ErrInvalidTeams},
		{"unknown category", func(in *CreateMatchInput) { in.Category = "women" }, ErrInvalidCategory},
		{"not a participant", func(in *CreateMatchInput) { in.Team2 = []string{"outsider"} }, ErrPlayerNotParticipant},
		{"unknown tournament", func(in *CreateMatchInput) { in.TournamentID = "missing" }, ErrTournamentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := l.matches.CreateMatch(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	count, err := l.store.Matches.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateMatch_OnePodiumMatchPerRound(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		l.addPlayer(t, id, id)
	}
	tournament := l.activeTournament(t, []string{"men"}, "a", "b", "c", "d")

	final := l.scheduleMatch(t, tournament.ID, "men", " FINAL ", []string{"a"}, []string{"b"})
	assert.Equal(t, models.RoundFinal, final.Round)

	_, err := l.matches.CreateMatch(ctx, CreateMatchInput{
		TournamentID: tournament.ID, Category: "men", Round: "final",
		Team1: []string{"c"}, Team2: []string{"d"}, Date: time.Now(),
	})
	assert.ErrorIs(t, err, ErrRoundAlreadyScheduled)

	// Cancelling the final frees the slot.
	_, err = l.matches.CancelMatch(ctx, final.ID)
	require.NoError(t, err)
	l.scheduleMatch(t, tournament.ID, "men", "final", []string{"c"}, []string{"d"})
}

func TestCreateMatch_ClosedTournament(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "a", "a")
	l.addPlayer(t, "b", "b")
	tournament := l.activeTournament(t, []string{"men"}, "a", "b")
	l.closeTournament(t, tournament.ID)

	_, err := l.matches.CreateMatch(ctx, CreateMatchInput{
		TournamentID: tournament.ID, Category: "men", Round: "round-1",
		Team1: []string{"a"}, Team2: []string{"b"}, Date: time.Now(),
	})
	assert.ErrorIs(t, err, ErrTournamentClosed)
}

func TestCancelMatch(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "a", "a")
	l.addPlayer(t, "b", "b")
	tournament := l.activeTournament(t, []string{"men"}, "a", "b")
	played := l.scheduleMatch(t, tournament.ID, "men", "round-1", []string{"a"}, []string{"b"})
	open := l.scheduleMatch(t, tournament.ID, "men", "round-2", []string{"a"}, []string{"b"})

	_, err := l.results.RecordResult(ctx, played.ID, RecordResultInput{Score: "6-1", Winner: []string{"a"}})
	require.NoError(t, err)
	_, err = l.matches.CancelMatch(ctx, played.ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)

	cancelled, err := l.matches.CancelMatch(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCancelled, cancelled.Status)

	_, err = l.matches.CancelMatch(ctx, open.ID)
	assert.ErrorIs(t, err, ErrMatchNotScheduled)
	_, err = l.matches.CancelMatch(ctx, "missing")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "a", "a")
	l.addPlayer(t, "b", "b")
	tournament := l.activeTournament(t, []string{"men", "mixed"}, "a", "b")
	l.scheduleMatch(t, tournament.ID, "men", "round-1", []string{"a"}, []string{"b"})
	l.scheduleMatch(t, tournament.ID, "mixed", "round-1", []string{"a"}, []string{"b"})

	all, err := l.matches.ListMatches(ctx, tournament.ID, repositories.ListMatchesFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	category := "mixed"
	round := " Round-1 "
	filtered, err := l.matches.ListMatches(ctx, tournament.ID, repositories.ListMatchesFilter{Category: &category, Round: &round})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "mixed", filtered[0].Category)

	_, err = l.matches.ListMatches(ctx, "missing", repositories.ListMatchesFilter{})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
