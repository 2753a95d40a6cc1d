package models

import (
	"strings"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Canonical round tags. Rounds are free-form; these are the values the league uses.
const (
	RoundGroupStage   = "group-stage"
	RoundOf16         = "round-of-16"
	RoundOne          = "round-1"
	RoundTwo          = "round-2"
	RoundQuarterFinal = "quarter-final"
	RoundSemiFinal    = "semi-final"
	RoundFinal        = "final"
	RoundThirdPlace   = "third-place"
	RoundBronzeMatch  = "bronze-match"
)

func normalizeRound(round string) string {
	return strings.ToLower(strings.TrimSpace(round))
}

// IsFinal reports whether round decides the champion.
func IsFinal(round string) bool {
	return normalizeRound(round) == RoundFinal
}

// IsThirdPlace reports whether round decides third place.
func IsThirdPlace(round string) bool {
	switch normalizeRound(round) {
	case RoundThirdPlace, RoundBronzeMatch, "3rd-place":
		return true
	}
	return false
}

// IsPodiumRound reports whether a result in round affects the podium.
func IsPodiumRound(round string) bool {
	return IsFinal(round) || IsThirdPlace(round)
}

type Match struct {
	ID           string         `json:"id"`
	TournamentID string         `json:"tournament_id"`
	Category     string         `json:"category"`
	Round        string         `json:"round"`
	Team1        []string       `json:"team1"`
	Team2        []string       `json:"team2"`
	Date         time.Time      `json:"date"`
	Status       MatchStatus    `json:"status"`
	Score        *string        `json:"score,omitempty"`
	Winner       []string       `json:"winner,omitempty"`
	Aces         map[string]int `json:"aces,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Players returns team1 ∪ team2 in order.
func (m *Match) Players() []string {
	players := make([]string, 0, len(m.Team1)+len(m.Team2))
	players = append(players, m.Team1...)
	players = append(players, m.Team2...)
	return players
}

// WinningSide returns 1 or 2 when winner equals team1 or team2 as a set, 0 otherwise.
func (m *Match) WinningSide(winner []string) int {
	switch {
	case SameTeam(winner, m.Team1):
		return 1
	case SameTeam(winner, m.Team2):
		return 2
	}
	return 0
}

// SameTeam compares two teams by set equality.
func SameTeam(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	if len(set) != len(a) {
		return false
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// TeamsDisjoint reports whether no player appears twice across both teams.
func TeamsDisjoint(team1, team2 []string) bool {
	seen := make(map[string]struct{}, len(team1)+len(team2))
	for _, id := range append(append([]string{}, team1...), team2...) {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func ContainsPlayer(team []string, playerID string) bool {
	for _, id := range team {
		if id == playerID {
			return true
		}
	}
	return false
}
