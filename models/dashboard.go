package models

type DashboardStats struct {
	PlayersTotal        int                      `json:"players_total"`
	TournamentsTotal    int                      `json:"tournaments_total"`
	TournamentsByStatus map[TournamentStatus]int `json:"tournaments_by_status"`
	MatchesTotal        int                      `json:"matches_total"`
	MatchesCompleted    int                      `json:"matches_completed"`
}
