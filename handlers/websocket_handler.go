package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/beach-league/middleware"
	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/realtime"
	"github.com/Dosada05/beach-league/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub               *realtime.Hub
	upgrader          websocket.Upgrader
	tournamentService services.TournamentService
	authService       services.AuthService
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *realtime.Hub, ts services.TournamentService, as services.AuthService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		authService:       as,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeTournament godoc
// @Summary      Live events of one tournament (match created, result recorded, status changes)
// @Tags         realtime
// @Param        tournamentID path string true "Tournament ID"
// @Router       /ws/tournaments/{tournamentID} [get]
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.tournamentService.GetTournament(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.TournamentRoom(tournamentID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// ServeSession godoc
// @Summary      Session changes of the caller: the identity on sign-in, null on sign-out
// @Tags         realtime
// @Param        token query string true "Bearer token"
// @Router       /ws/session [get]
func (h *WebSocketHandler) ServeSession(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	identity, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.String("user_id", identity.UserID), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.SessionRoom(identity.UserID))
	h.hub.Register(client)
	client.Send(realtime.EventSessionChanged, identity)

	unsubscribe := h.authService.Subscribe(identity.UserID, identity.SessionID, func(changed *models.Identity) {
		client.Send(realtime.EventSessionChanged, changed)
	})
	defer unsubscribe()

	go client.WritePump()
	client.ReadPump()
}
