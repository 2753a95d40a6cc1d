package handlers

import (
	"net/http"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	resultService services.ResultService
}

func NewMatchHandler(ms services.MatchService, rs services.ResultService) *MatchHandler {
	return &MatchHandler{
		matchService:  ms,
		resultService: rs,
	}
}

type createMatchInput struct {
	TournamentID string           `json:"tournament_id"`
	Category     string           `json:"category"`
	Round        string           `json:"round"`
	Team1        []string         `json:"team1"`
	Team2        []string         `json:"team2"`
	Date         models.Timestamp `json:"date"`
}

// Get godoc
// @Summary      Match by id
// @Tags         matches
// @Produce      json
// @Param        matchID path string true "Match ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /matches/{matchID} [get]
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

// Create godoc
// @Summary      Schedule a match between registered players
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body createMatchInput true "Match"
// @Success      201 {object} map[string]interface{}
// @Failure      400,404,409 {object} map[string]interface{}
// @Router       /admin/matches [post]
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input createMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), services.CreateMatchInput{
		TournamentID: input.TournamentID,
		Category:     input.Category,
		Round:        input.Round,
		Team1:        input.Team1,
		Team2:        input.Team2,
		Date:         input.Date.Time,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"match": match})
}

// RecordResult godoc
// @Summary      Record the result of a scheduled match
// @Description  Completes the match, updates the podium for final and third-place rounds,
// @Description  applies the outcome to every player's statistics and completes the tournament
// @Description  once both podium matches are played.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        matchID path string true "Match ID"
// @Param        input body services.RecordResultInput true "Result"
// @Success      200 {object} map[string]interface{}
// @Failure      400,404,409 {object} map[string]interface{}
// @Router       /admin/matches/{matchID}/result [post]
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.resultService.RecordResult(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

// Cancel godoc
// @Summary      Cancel a scheduled match
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        matchID path string true "Match ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404,409 {object} map[string]interface{}
// @Router       /admin/matches/{matchID}/cancel [post]
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CancelMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}
