package models

import "time"

// TournamentStatus представляет статусы турнира.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Podium holds the final standings of a tournament. Each place is a team:
// one player id for singles, two for doubles.
type Podium struct {
	Champion   []string `json:"champion,omitempty"`
	RunnerUp   []string `json:"runner_up,omitempty"`
	ThirdPlace []string `json:"third_place,omitempty"`
}

// IsEmpty reports whether no podium place has been decided yet.
func (p *Podium) IsEmpty() bool {
	return p == nil || (len(p.Champion) == 0 && len(p.RunnerUp) == 0 && len(p.ThirdPlace) == 0)
}

// Tournament представляет турнир лиги.
type Tournament struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Location     string           `json:"location"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	Status       TournamentStatus `json:"status"`
	Categories   []string         `json:"categories"`
	Participants []string         `json:"participants"`
	Podium       *Podium          `json:"podium,omitempty"`
	CreatedBy    string           `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`

	// Matches is a read projection loaded from the match store, never persisted on the tournament.
	Matches []Match `json:"matches,omitempty"`
}

// HasParticipant reports whether playerID is registered.
func (t *Tournament) HasParticipant(playerID string) bool {
	for _, id := range t.Participants {
		if id == playerID {
			return true
		}
	}
	return false
}

// HasCategory reports whether category is one of the tournament's categories.
func (t *Tournament) HasCategory(category string) bool {
	for _, c := range t.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// InitialStatus returns the status a new tournament starts in.
func InitialStatus(startDate, now time.Time) TournamentStatus {
	if startDate.After(now) {
		return StatusUpcoming
	}
	return StatusActive
}
