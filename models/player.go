package models

import "time"

// PlayerStats is the cumulative statistics record kept on every player profile.
type PlayerStats struct {
	MatchesPlayed    int     `json:"matches_played" bson:"matchesPlayed"`
	Wins             int     `json:"wins" bson:"wins"`
	Losses           int     `json:"losses" bson:"losses"`
	WinRate          float64 `json:"win_rate" bson:"winRate"`
	TournamentsWon   int     `json:"tournaments_won" bson:"tournamentsWon"`
	PodiumFinishes   int     `json:"podium_finishes" bson:"podiumFinishes"`
	AcesServed       int     `json:"aces_served" bson:"acesServed"`
	LongestWinStreak int     `json:"longest_win_streak" bson:"longestWinStreak"`
	CurrentWinStreak int     `json:"current_win_streak" bson:"currentWinStreak"`
}

// PlayerProfile представляет игрока лиги.
type PlayerProfile struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Age       *int        `json:"age,omitempty"`
	Gender    *string     `json:"gender,omitempty"`
	Stats     PlayerStats `json:"stats"`
	IsAdmin   bool        `json:"is_admin"`
	Version   int64       `json:"-"`
	CreatedAt time.Time   `json:"created_at"`

	AvatarKey *string `json:"-"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// CalculateWinRate returns wins/matchesPlayed as a percentage, 0 when no matches were played.
func CalculateWinRate(wins, matchesPlayed int) float64 {
	if matchesPlayed <= 0 {
		return 0
	}
	return float64(wins) / float64(matchesPlayed) * 100
}

// RecordMatch applies the outcome of a single completed match.
// Non-positive ace counts are ignored.
func (s *PlayerStats) RecordMatch(won bool, aces int) {
	s.MatchesPlayed++
	if won {
		s.Wins++
		s.CurrentWinStreak++
	} else {
		s.Losses++
		s.CurrentWinStreak = 0
	}
	if s.CurrentWinStreak > s.LongestWinStreak {
		s.LongestWinStreak = s.CurrentWinStreak
	}
	if aces > 0 {
		s.AcesServed += aces
	}
	s.WinRate = CalculateWinRate(s.Wins, s.MatchesPlayed)
}

// RecordPodium applies the career effects of a final or third-place result.
func (s *PlayerStats) RecordPodium(round string, won bool) {
	switch {
	case IsFinal(round):
		s.PodiumFinishes++
		if won {
			s.TournamentsWon++
		}
	case IsThirdPlace(round):
		if won {
			s.PodiumFinishes++
		}
	}
}
