package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/beach-league/auth"
	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/Dosada05/beach-league/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (AuthService, *repositories.Store) {
	t.Helper()
	utils.BcryptCost = bcrypt.MinCost
	store := repositories.NewMemoryStore()
	svc := NewAuthService(
		store.Accounts,
		store.Players,
		auth.NewTokenManager("test-secret", time.Hour),
		auth.NewMemorySessionStore(),
		auth.NewBroker(),
		[]string{"Root@Example.com"},
		discardLogger(),
	)
	return svc, store
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	svc, store := newAuthFixture(t)

	identity, err := svc.CreateAccount(ctx, CreateAccountInput{Email: " Ana@Example.com ", Password: "secret1", DisplayName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", identity.Email)
	assert.False(t, identity.IsAdmin)

	player, err := store.Players.GetByID(ctx, identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", player.Name)
	assert.Equal(t, models.PlayerStats{}, player.Stats)

	_, err = svc.CreateAccount(ctx, CreateAccountInput{Email: "ana@example.com", Password: "secret2", DisplayName: "Other"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	tests := []struct {
		name  string
		input CreateAccountInput
		want  error
	}{
		{"bad email", CreateAccountInput{Email: "not-an-email", Password: "secret1", DisplayName: "Ana"}, ErrInvalidEmail},
		{"short password", CreateAccountInput{Email: "a@b.com", Password: "123", DisplayName: "Ana"}, ErrPasswordTooShort},
		{"blank name", CreateAccountInput{Email: "a@b.com", Password: "secret1", DisplayName: " "}, ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignInAuthenticateSignOut(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthFixture(t)
	created, err := svc.CreateAccount(ctx, CreateAccountInput{Email: "ana@example.com", Password: "secret1", DisplayName: "Ana"})
	require.NoError(t, err)

	var seen []*models.Identity
	unsubscribe := svc.Subscribe(created.UserID, "", func(id *models.Identity) { seen = append(seen, id) })
	defer unsubscribe()

	_, _, err = svc.SignIn(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	identity, token, err := svc.SignIn(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, identity.SessionID)

	resolved, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, resolved.UserID)
	assert.Equal(t, identity.SessionID, resolved.SessionID)

	require.NoError(t, svc.SignOut(ctx, resolved))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.Len(t, seen, 2)
	assert.Equal(t, created.UserID, seen[0].UserID)
	assert.Nil(t, seen[1])

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOut_OnlyNotifiesItsOwnSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthFixture(t)
	created, err := svc.CreateAccount(ctx, CreateAccountInput{Email: "ana@example.com", Password: "secret1", DisplayName: "Ana"})
	require.NoError(t, err)

	phone, _, err := svc.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	_, laptopToken, err := svc.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	laptop, err := svc.Authenticate(ctx, laptopToken)
	require.NoError(t, err)

	var phoneEvents, laptopEvents []*models.Identity
	defer svc.Subscribe(created.UserID, phone.SessionID, func(id *models.Identity) { phoneEvents = append(phoneEvents, id) })()
	defer svc.Subscribe(created.UserID, laptop.SessionID, func(id *models.Identity) { laptopEvents = append(laptopEvents, id) })()

	require.NoError(t, svc.SignOut(ctx, phone))

	require.Len(t, phoneEvents, 1)
	assert.Nil(t, phoneEvents[0])
	assert.Empty(t, laptopEvents)

	still, err := svc.Authenticate(ctx, laptopToken)
	require.NoError(t, err)
	assert.Equal(t, laptop.SessionID, still.SessionID)
}

type failingPlayers struct {
	repositories.PlayerRepository
}

func (failingPlayers) Create(context.Context, *models.PlayerProfile) error {
	return errors.New("players collection unavailable")
}

func TestCreateAccount_RemovesAccountWhenProfileFails(t *testing.T) {
	ctx := context.Background()
	utils.BcryptCost = bcrypt.MinCost
	store := repositories.NewMemoryStore()
	svc := NewAuthService(store.Accounts, failingPlayers{store.Players},
		auth.NewTokenManager("test-secret", time.Hour), auth.NewMemorySessionStore(), auth.NewBroker(),
		nil, discardLogger())

	_, err := svc.CreateAccount(ctx, CreateAccountInput{Email: "ana@example.com", Password: "secret1", DisplayName: "Ana"})
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = store.Accounts.GetByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, repositories.ErrAccountNotFound)
}

func TestCreateAccount_AdminBootstrap(t *testing.T) {
	ctx := context.Background()
	svc, store := newAuthFixture(t)
	created, err := svc.CreateAccount(ctx, CreateAccountInput{Email: "root@example.com", Password: "secret1", DisplayName: "Root"})
	require.NoError(t, err)
	assert.True(t, created.IsAdmin)

	player, err := store.Players.GetByID(ctx, created.UserID)
	require.NoError(t, err)
	assert.True(t, player.IsAdmin)

	_, token, err := svc.SignIn(ctx, "root@example.com", "secret1")
	require.NoError(t, err)
	identity, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin)
}
