package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/beach-league/auth"
	"github.com/Dosada05/beach-league/middleware"
	"github.com/Dosada05/beach-league/realtime"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/Dosada05/beach-league/services"
	"github.com/Dosada05/beach-league/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	server *httptest.Server
	store  *repositories.Store
	hub    *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	utils.BcryptCost = bcrypt.MinCost
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	hub := realtime.NewHub(logger)
	go hub.Run()

	authService := services.NewAuthService(store.Accounts, store.Players,
		auth.NewTokenManager("test-secret", time.Hour), auth.NewMemorySessionStore(), auth.NewBroker(),
		[]string{"admin@league.test"}, logger)
	tournaments := services.NewTournamentService(store.Tournaments, store.Matches, store.Players, hub, logger)
	matches := services.NewMatchService(store.Matches, store.Tournaments, hub, logger)
	results := services.NewResultService(store.Matches, store.Tournaments, store.Players, tournaments, hub, logger)

	authHandler := NewAuthHandler(authService)
	playerHandler := NewPlayerHandler(services.NewPlayerService(store.Players, nil, logger))
	rankingHandler := NewRankingHandler(services.NewRankingService(store.Players, nil, logger))
	tournamentHandler := NewTournamentHandler(tournaments, matches)
	matchHandler := NewMatchHandler(matches, results)
	dashboardHandler := NewDashboardHandler(services.NewDashboardService(store.Players, store.Tournaments, store.Matches))
	wsHandler := NewWebSocketHandler(hub, tournaments, authService, []string{"*"})

	authenticate := middleware.Authenticate(authService)
	r := chi.NewRouter()
	r.Post("/auth/signup", authHandler.SignUp)
	r.Post("/auth/signin", authHandler.SignIn)
	r.With(authenticate).Post("/auth/signout", authHandler.SignOut)
	r.With(authenticate).Get("/auth/me", authHandler.Me)
	r.Get("/players/{playerID}", playerHandler.GetProfile)
	r.With(authenticate).Patch("/players/{playerID}", playerHandler.UpdateProfile)
	r.With(authenticate).Post("/players/{playerID}/avatar", playerHandler.UploadAvatar)
	r.Get("/ranking", rankingHandler.GetRanking)
	r.Get("/tournaments", tournamentHandler.List)
	r.Get("/tournaments/{tournamentID}", tournamentHandler.GetByID)
	r.Get("/tournaments/{tournamentID}/matches", tournamentHandler.ListMatches)
	r.With(authenticate).Post("/tournaments/{tournamentID}/register", tournamentHandler.Register)
	r.Get("/matches/{matchID}", matchHandler.Get)
	r.Group(func(r chi.Router) {
		r.Use(authenticate, middleware.RequireAdmin)
		r.Post("/admin/tournaments", tournamentHandler.Create)
		r.Patch("/admin/tournaments/{tournamentID}/status", tournamentHandler.SetStatus)
		r.Post("/admin/tournaments/{tournamentID}/participants", tournamentHandler.AddParticipant)
		r.Post("/admin/matches", matchHandler.Create)
		r.Post("/admin/matches/{matchID}/result", matchHandler.RecordResult)
		r.Get("/admin/dashboard", dashboardHandler.Stats)
	})
	r.Get("/ws/tournaments/{tournamentID}", wsHandler.ServeTournament)
	r.Get("/ws/session", wsHandler.ServeSession)

	ts := &testServer{t: t, server: httptest.NewServer(r), store: store, hub: hub}
	t.Cleanup(func() {
		ts.server.Close()
		hub.Stop()
	})
	return ts
}

// do sends body as JSON and decodes the JSON reply into a generic map.
func (s *testServer) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

// signUp creates an account and returns its user id and a fresh token.
func (s *testServer) signUp(email, name string) (string, string) {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": email, "password": "secret1", "display_name": name,
	})
	require.Equal(s.t, http.StatusCreated, status, body)
	userID := body["identity"].(map[string]interface{})["user_id"].(string)

	status, body = s.do(http.MethodPost, "/auth/signin", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(s.t, http.StatusOK, status, body)
	return userID, body["token"].(string)
}

func field(body map[string]interface{}, keys ...string) interface{} {
	var v interface{} = body
	for _, k := range keys {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.signUp("ana@league.test", "Ana")

	status, body := s.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, field(body, "identity", "user_id"))
	assert.Equal(t, false, field(body, "identity", "is_admin"))

	status, _ = s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "ana@league.test", "password": "secret1", "display_name": "Again",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/auth/signin", "", map[string]string{"email": "ana@league.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodPost, "/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@b.com", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unknown key")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	_, playerToken := s.signUp("ana@league.test", "Ana")

	status, _ := s.do(http.MethodGet, "/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(http.MethodGet, "/admin/dashboard", playerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	_, adminToken := s.signUp("admin@league.test", "Root")
	status, body := s.do(http.MethodGet, "/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["players_total"])
}

func TestTournamentLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.signUp("admin@league.test", "Root")
	anaID, anaToken := s.signUp("ana@league.test", "Ana")
	biaID, _ := s.signUp("bia@league.test", "Bia")

	status, body := s.do(http.MethodPost, "/admin/tournaments", adminToken, map[string]interface{}{
		"name":       "Ipanema Cup",
		"location":   "Rio",
		"start_date": time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_date":   map[string]int64{"_seconds": time.Now().Add(48 * time.Hour).Unix(), "_nanoseconds": 0},
		"categories": []string{"women"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	tournamentID := field(body, "tournament", "id").(string)
	assert.Equal(t, "active", field(body, "tournament", "status"))

	status, _ = s.do(http.MethodPost, "/tournaments/"+tournamentID+"/register", anaToken, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(http.MethodPost, "/tournaments/"+tournamentID+"/register", anaToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = s.do(http.MethodPost, "/admin/tournaments/"+tournamentID+"/participants", adminToken,
		map[string]string{"email": "bia@league.test"})
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(http.MethodPost, "/admin/matches", adminToken, map[string]interface{}{
		"tournament_id": tournamentID,
		"category":      "women",
		"round":         "final",
		"team1":         []string{anaID},
		"team2":         []string{biaID},
		"date":          time.Now().Add(time.Hour).UnixMilli(),
	})
	require.Equal(t, http.StatusCreated, status, body)
	matchID := field(body, "match", "id").(string)

	status, _ = s.do(http.MethodPost, "/admin/matches/"+matchID+"/result", adminToken, map[string]interface{}{
		"score": "6-4", "winner": []string{"not-a-player"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(http.MethodPost, "/admin/matches/"+matchID+"/result", adminToken, map[string]interface{}{
		"score": "6-4", "winner": []string{anaID}, "aces": map[string]int{anaID: 2},
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "completed", field(body, "match", "status"))

	status, _ = s.do(http.MethodPost, "/admin/matches/"+matchID+"/result", adminToken, map[string]interface{}{
		"score": "4-6", "winner": []string{biaID},
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(http.MethodGet, "/tournaments/"+tournamentID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{anaID}, field(body, "tournament", "podium", "champion"))
	assert.Len(t, field(body, "tournament", "matches"), 1)

	status, body = s.do(http.MethodGet, "/players/"+anaID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), field(body, "player", "stats", "tournaments_won"))
	assert.Equal(t, float64(2), field(body, "player", "stats", "aces_served"))

	status, body = s.do(http.MethodGet, "/ranking?search=ana", "", nil)
	require.Equal(t, http.StatusOK, status)
	ranking := body["ranking"].([]interface{})
	require.Len(t, ranking, 1)
	assert.Equal(t, float64(1), ranking[0].(map[string]interface{})["position"])

	status, _ = s.do(http.MethodPatch, "/admin/tournaments/"+tournamentID+"/status", adminToken, map[string]string{"status": "upcoming"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestNotFoundAndBadIDs(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodGet, "/tournaments/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(http.MethodGet, "/tournaments/6f1c1f7e-3a43-4d7e-9a4b-2f9c7d9c0b11", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(http.MethodGet, "/matches/6f1c1f7e-3a43-4d7e-9a4b-2f9c7d9c0b11", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(http.MethodGet, "/ranking?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	for _, path := range []string{"/ranking", "/ranking?limit=0", "/ranking?limit=500"} {
		status, body := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, status, path)
		assert.NotNil(t, body["ranking"], path)
	}
	status, _ = s.do(http.MethodGet, "/tournaments?status=finished", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUploadAvatarWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	anaID, token := s.signUp("ana@league.test", "Ana")

	var buf bytes.Buffer
	boundary := "avatar-boundary"
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Disposition: form-data; name=\"avatar\"; filename=\"me.png\"\r\n")
	buf.WriteString("Content-Type: image/png\r\n\r\n")
	buf.WriteString("\x89PNG\r\n")
	buf.WriteString("--" + boundary + "--\r\n")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.server.URL+"/players/"+anaID+"/avatar", &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetIDFromURL(t *testing.T) {
	r := chi.NewRouter()
	var got string
	var gotErr error
	r.Get("/x/{id}", func(_ http.ResponseWriter, r *http.Request) {
		got, gotErr = getIDFromURL(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/6F1C1F7E-3A43-4D7E-9A4B-2F9C7D9C0B11", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, "6f1c1f7e-3a43-4d7e-9a4b-2f9c7d9c0b11", got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/42", nil))
	assert.True(t, strings.Contains(gotErr.Error(), "invalid id"))
}
