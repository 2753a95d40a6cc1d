package auth

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/beach-league/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, expiresAt, err := m.Issue("user-1", "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, _, err := m.Issue("user-1", "session-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("user-1", "session-1")
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	require.NoError(t, store.Create(ctx, Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, store.Create(ctx, Session{ID: "s2", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = store.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBroker_SubscribeAndUnsubscribe(t *testing.T) {
	b := NewBroker()
	var calls int32
	var last *models.Identity

	unsubscribe := b.Subscribe("u1", "", func(id *models.Identity) {
		atomic.AddInt32(&calls, 1)
		last = id
	})
	b.Subscribe("u2", "", func(*models.Identity) { t.Error("other user's subscriber must not be called") })

	b.Publish("u1", "", &models.Identity{UserID: "u1", Name: "Ana"})
	require.NotNil(t, last)
	assert.Equal(t, "Ana", last.Name)

	b.Publish("u1", "s1", nil)
	assert.Nil(t, last)

	unsubscribe()
	unsubscribe()
	b.Publish("u1", "", &models.Identity{UserID: "u1"})
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBroker_SessionScopedEvents(t *testing.T) {
	b := NewBroker()
	var phone, laptop []*models.Identity
	b.Subscribe("u1", "phone", func(id *models.Identity) { phone = append(phone, id) })
	b.Subscribe("u1", "laptop", func(id *models.Identity) { laptop = append(laptop, id) })

	b.Publish("u1", "", &models.Identity{UserID: "u1"})
	b.Publish("u1", "phone", nil)

	require.Len(t, phone, 2)
	assert.NotNil(t, phone[0])
	assert.Nil(t, phone[1])
	require.Len(t, laptop, 1)
	assert.NotNil(t, laptop[0])
}

func TestMemorySessionStore_CreateSweepsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemorySessionStore().(*memorySessionStore)
	store.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, Session{ID: uuid.NewString(), UserID: "u1", ExpiresAt: now.Add(time.Second)}))
	}
	require.NoError(t, store.Create(ctx, Session{ID: "long", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	assert.Len(t, store.sessions, 6)

	now = now.Add(30 * time.Second)
	require.NoError(t, store.Create(ctx, Session{ID: "early", UserID: "u2", ExpiresAt: now.Add(time.Hour)}))
	assert.Len(t, store.sessions, 7, "no sweep before the interval elapses")

	now = now.Add(sessionSweepInterval)
	require.NoError(t, store.Create(ctx, Session{ID: "late", UserID: "u3", ExpiresAt: now.Add(time.Hour)}))
	assert.Len(t, store.sessions, 3)
	for _, id := range []string{"long", "early", "late"} {
		_, err := store.Get(ctx, id)
		assert.NoError(t, err, id)
	}
}

func TestRedisSessionStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisSessionStore(client)
	id := uuid.NewString()
	require.NoError(t, store.Create(ctx, Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
