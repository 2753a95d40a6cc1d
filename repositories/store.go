package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Dosada05/beach-league/models"
)

type ListPlayersFilter struct {
	Limit  int
	Offset int
}

type ListTournamentsFilter struct {
	Status        *models.TournamentStatus
	ParticipantID *string
	// Search is a fuzzy name/location term. It is matched by the service layer; stores ignore it.
	Search string
	Limit  int
	Offset int
}

type ListMatchesFilter struct {
	Category *string
	Round    *string
	Status   *models.MatchStatus
}

// MatchResult is the data written when a scheduled match is completed.
type MatchResult struct {
	Score       string
	Winner      []string
	Aces        map[string]int
	CompletedAt time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}

type PlayerRepository interface {
	Create(ctx context.Context, player *models.PlayerProfile) error
	GetByID(ctx context.Context, id string) (*models.PlayerProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.PlayerProfile, error)
	UpdateIdentity(ctx context.Context, player *models.PlayerProfile) error
	UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error
	// UpdateStats writes stats only if the stored version equals expectedVersion,
	// otherwise ErrVersionConflict. The stored version is incremented on success.
	UpdateStats(ctx context.Context, id string, expectedVersion int64, stats models.PlayerStats) error
	// ListRanked returns non-admin players ordered by win rate, highest first.
	ListRanked(ctx context.Context, limit int) ([]*models.PlayerProfile, error)
	// List returns players in creation order.
	List(ctx context.Context, filter ListPlayersFilter) ([]*models.PlayerProfile, error)
	Count(ctx context.Context) (int, error)
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error)
	UpdateDetails(ctx context.Context, tournament *models.Tournament) error
	// UpdateStatus changes the status only if it is currently from, otherwise ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, from, to models.TournamentStatus) error
	AddParticipant(ctx context.Context, id, playerID string) error
	RemoveParticipant(ctx context.Context, id, playerID string) error
	// SetPodium writes the non-empty places of podium, leaving the others untouched.
	SetPodium(ctx context.Context, id string, podium models.Podium) error
	CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error)
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string, filter ListMatchesFilter) ([]*models.Match, error)
	// Complete records the result only if the match is still scheduled, otherwise ErrMatchNotScheduled.
	Complete(ctx context.Context, id string, result MatchResult) error
	Cancel(ctx context.Context, id string) error
	Count(ctx context.Context, status *models.MatchStatus) (int, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Accounts    AccountRepository
	Players     PlayerRepository
	Tournaments TournamentRepository
	Matches     MatchRepository
}

func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Accounts:    NewPostgresAccountRepository(db),
		Players:     NewPostgresPlayerRepository(db),
		Tournaments: NewPostgresTournamentRepository(db),
		Matches:     NewPostgresMatchRepository(db),
	}
}

// podiumSlot is persisted alongside a match so the store can enforce
// at most one final and one third-place match per tournament.
func podiumSlot(round string) *string {
	var slot string
	switch {
	case models.IsFinal(round):
		slot = models.RoundFinal
	case models.IsThirdPlace(round):
		slot = models.RoundThirdPlace
	default:
		return nil
	}
	return &slot
}
