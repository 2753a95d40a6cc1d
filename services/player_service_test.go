package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.league.test/" + key
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "p1", "Ana")

	name, age, gender := " Ana Paula ", 27, "female"
	updated, err := l.players.UpdateProfile(ctx, "p1", "p1", UpdateProfileInput{Name: &name, Age: &age, Gender: &gender})
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", updated.Name)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 27, *updated.Age)

	_, err = l.players.UpdateProfile(ctx, "p2", "p1", UpdateProfileInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
	assert.ErrorIs(t, err, ErrUnauthorized)

	badAge := 0
	_, err = l.players.UpdateProfile(ctx, "p1", "p1", UpdateProfileInput{Age: &badAge})
	assert.ErrorIs(t, err, ErrInvalidAge)

	blank := "  "
	_, err = l.players.UpdateProfile(ctx, "p1", "p1", UpdateProfileInput{Name: &blank})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = l.players.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestUpdateProfile_KeepsStats(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "p1", "Ana")
	l.addPlayer(t, "p2", "Bia")
	tournament := l.activeTournament(t, []string{"women"}, "p1", "p2")
	match := l.scheduleMatch(t, tournament.ID, "women", "round-1", []string{"p1"}, []string{"p2"})
	_, err := l.results.RecordResult(ctx, match.ID, RecordResultInput{Score: "6-2", Winner: []string{"p1"}})
	require.NoError(t, err)

	name := "Ana Clara"
	_, err = l.players.UpdateProfile(ctx, "p1", "p1", UpdateProfileInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 1, l.stats(t, "p1").Wins)
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()
	store := newLeague(t).store
	require.NoError(t, store.Players.Create(ctx, newProfile("p1")))
	uploader := newFakeUploader()
	players := NewPlayerService(store.Players, uploader, discardLogger())

	png := []byte("\x89PNG fake image")
	player, err := players.UploadAvatar(ctx, "p1", "p1", bytes.NewReader(png), int64(len(png)), "image/png")
	require.NoError(t, err)
	require.NotNil(t, player.AvatarURL)
	assert.Equal(t, "https://cdn.league.test/avatars/p1.png", *player.AvatarURL)
	assert.Equal(t, png, uploader.objects["avatars/p1.png"])

	_, err = players.UploadAvatar(ctx, "p1", "p1", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, []string{"avatars/p1.png"}, uploader.deleted)

	profile, err := players.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.league.test/avatars/p1.jpg", *profile.AvatarURL)
}

func TestUploadAvatar_Rejections(t *testing.T) {
	ctx := context.Background()
	store := newLeague(t).store
	require.NoError(t, store.Players.Create(ctx, newProfile("p1")))
	players := NewPlayerService(store.Players, newFakeUploader(), discardLogger())

	_, err := players.UploadAvatar(ctx, "p2", "p1", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = players.UploadAvatar(ctx, "p1", "p1", strings.NewReader("%PDF"), 4, "application/pdf")
	assert.ErrorIs(t, err, ErrAvatarInvalidType)

	_, err = players.UploadAvatar(ctx, "p1", "p1", strings.NewReader("x"), MaxAvatarSize+1, "image/png")
	assert.ErrorIs(t, err, ErrAvatarTooLarge)

	// A lying size header is caught while reading.
	oversized := bytes.Repeat([]byte{0xff}, MaxAvatarSize+10)
	_, err = players.UploadAvatar(ctx, "p1", "p1", bytes.NewReader(oversized), 10, "image/png")
	assert.ErrorIs(t, err, ErrAvatarTooLarge)

	withoutStorage := NewPlayerService(store.Players, nil, discardLogger())
	_, err = withoutStorage.UploadAvatar(ctx, "p1", "p1", strings.NewReader("x"), 1, "image/png")
	assert.True(t, errors.Is(err, ErrUploaderUnavailable))
}

func TestListPlayers_Search(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "p1", "Ana Souza")
	l.addPlayer(t, "p2", "Bia Lima")

	all, err := l.players.ListPlayers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := l.players.ListPlayers(ctx, "souza")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "p1", byName[0].ID)

	byEmail, err := l.players.ListPlayers(ctx, "p2@league")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "p2", byEmail[0].ID)
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	l := newLeague(t)
	l.addPlayer(t, "a", "a")
	l.addPlayer(t, "b", "b")
	tournament := l.activeTournament(t, []string{"open"}, "a", "b")
	match := l.scheduleMatch(t, tournament.ID, "open", "round-1", []string{"a"}, []string{"b"})
	l.scheduleMatch(t, tournament.ID, "open", "round-2", []string{"a"}, []string{"b"})
	_, err := l.results.RecordResult(ctx, match.ID, RecordResultInput{Score: "6-4", Winner: []string{"b"}})
	require.NoError(t, err)

	stats, err := l.dashboard.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PlayersTotal)
	assert.Equal(t, 1, stats.TournamentsTotal)
	assert.Equal(t, 1, stats.TournamentsByStatus[models.StatusActive])
	assert.Contains(t, stats.TournamentsByStatus, models.StatusCancelled)
	assert.Equal(t, 2, stats.MatchesTotal)
	assert.Equal(t, 1, stats.MatchesCompleted)
}
