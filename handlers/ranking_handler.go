package handlers

import (
	"net/http"

	"github.com/Dosada05/beach-league/services"
)

const (
	defaultRankingLimit = 20
	maxRankingLimit     = 100
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rs services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rs}
}

// GetRanking godoc
// @Summary      League ranking by win rate
// @Description  Admins are excluded. With search, entries keep their position in the full ranking.
// @Tags         ranking
// @Produce      json
// @Param        limit query int false "Entries to rank (default 20, max 100)"
// @Param        search query string false "Fuzzy name filter"
// @Success      200 {object} map[string]interface{}
// @Router       /ranking [get]
func (h *RankingHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit, err := getPositiveIntQuery(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	switch {
	case limit == 0:
		limit = defaultRankingLimit
	case limit > maxRankingLimit:
		limit = maxRankingLimit
	}

	entries, err := h.rankingService.SearchRanking(r.Context(), limit, r.URL.Query().Get("search"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"ranking": entries})
}
