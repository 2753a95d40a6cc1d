package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/Dosada05/beach-league/services"
	"github.com/google/uuid"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	matchService      services.MatchService
}

func NewTournamentHandler(ts services.TournamentService, ms services.MatchService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		matchService:      ms,
	}
}

type tournamentInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	StartDate   models.Timestamp `json:"start_date"`
	EndDate     models.Timestamp `json:"end_date"`
	Categories  []string         `json:"categories"`
}

func (in tournamentInput) toService() services.CreateTournamentInput {
	return services.CreateTournamentInput{
		Name:        in.Name,
		Description: in.Description,
		Location:    in.Location,
		StartDate:   in.StartDate.Time,
		EndDate:     in.EndDate.Time,
		Categories:  in.Categories,
	}
}

type statusInput struct {
	Status models.TournamentStatus `json:"status"`
}

// participantInput identifies a player by id or, for the admin panel, by email.
type participantInput struct {
	PlayerID string `json:"player_id"`
	Email    string `json:"email"`
}

// List godoc
// @Summary      List tournaments
// @Tags         tournaments
// @Produce      json
// @Param        status query string false "upcoming, active, completed or cancelled"
// @Param        participant query string false "Player ID"
// @Param        search query string false "Fuzzy name or location filter"
// @Param        limit query int false "Page size (default 50, max 200)"
// @Param        offset query int false "Offset"
// @Success      200 {object} map[string]interface{}
// @Router       /tournaments [get]
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		filter.Status = &status
	}
	if participant := query.Get("participant"); participant != "" {
		filter.ParticipantID = &participant
	}
	filter.Search = query.Get("search")
	var err error
	if filter.Limit, err = getPositiveIntQuery(r, "limit"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.Offset, err = getPositiveIntQuery(r, "offset"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// GetByID godoc
// @Summary      Tournament with its matches
// @Tags         tournaments
// @Produce      json
// @Param        tournamentID path string true "Tournament ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// ListMatches godoc
// @Summary      Matches of a tournament
// @Tags         tournaments
// @Produce      json
// @Param        tournamentID path string true "Tournament ID"
// @Param        category query string false "Category"
// @Param        round query string false "Round"
// @Param        status query string false "scheduled, completed or cancelled"
// @Success      200 {object} map[string]interface{}
// @Router       /tournaments/{tournamentID}/matches [get]
func (h *TournamentHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var filter repositories.ListMatchesFilter
	query := r.URL.Query()
	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}
	if round := query.Get("round"); round != "" {
		filter.Round = &round
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.MatchStatus(statusStr)
		switch status {
		case models.MatchStatusScheduled, models.MatchStatusCompleted, models.MatchStatusCancelled:
		default:
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		filter.Status = &status
	}

	matches, err := h.matchService.ListMatches(r.Context(), id, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// Register godoc
// @Summary      Register the caller for a tournament
// @Tags         tournaments
// @Security     BearerAuth
// @Param        tournamentID path string true "Tournament ID"
// @Success      204
// @Failure      404,409 {object} map[string]interface{}
// @Router       /tournaments/{tournamentID}/register [post]
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.RegisterPlayer(r.Context(), id, identity.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Create godoc
// @Summary      Create a tournament
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body tournamentInput true "Tournament"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /admin/tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var input tournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), identity.UserID, input.toService())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// UpdateDetails godoc
// @Summary      Replace the descriptive fields of a tournament
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        tournamentID path string true "Tournament ID"
// @Param        input body tournamentInput true "Tournament"
// @Success      200 {object} map[string]interface{}
// @Failure      400,404,409 {object} map[string]interface{}
// @Router       /admin/tournaments/{tournamentID} [put]
func (h *TournamentHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input tournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentDetails(r.Context(), id, input.toService())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// SetStatus godoc
// @Summary      Move a tournament to another status
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        tournamentID path string true "Tournament ID"
// @Param        input body statusInput true "Target status"
// @Success      200 {object} map[string]interface{}
// @Failure      400,404,409 {object} map[string]interface{}
// @Router       /admin/tournaments/{tournamentID}/status [patch]
func (h *TournamentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input statusInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.SetStatus(r.Context(), id, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// AddParticipant godoc
// @Summary      Register a player by id or email
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Param        tournamentID path string true "Tournament ID"
// @Param        input body participantInput true "player_id or email"
// @Success      204
// @Failure      400,404,409 {object} map[string]interface{}
// @Router       /admin/tournaments/{tournamentID}/participants [post]
func (h *TournamentHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input participantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	playerID := strings.TrimSpace(input.PlayerID)
	switch {
	case playerID != "":
		if _, err := uuid.Parse(playerID); err != nil {
			badRequestResponse(w, r, errors.New("invalid player_id"))
			return
		}
		err = h.tournamentService.RegisterPlayer(r.Context(), id, playerID)
	case strings.TrimSpace(input.Email) != "":
		_, err = h.tournamentService.RegisterPlayerByEmail(r.Context(), id, input.Email)
	default:
		badRequestResponse(w, r, errors.New("player_id or email is required"))
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveParticipant godoc
// @Summary      Remove a player from a tournament
// @Tags         admin
// @Security     BearerAuth
// @Param        tournamentID path string true "Tournament ID"
// @Param        playerID path string true "Player ID"
// @Success      204
// @Failure      404,409 {object} map[string]interface{}
// @Router       /admin/tournaments/{tournamentID}/participants/{playerID} [delete]
func (h *TournamentHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.RemovePlayer(r.Context(), id, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
