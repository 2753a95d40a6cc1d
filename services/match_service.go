package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/realtime"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/google/uuid"
)

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID string, filter repositories.ListMatchesFilter) ([]*models.Match, error)
	CancelMatch(ctx context.Context, id string) (*models.Match, error)
}

type CreateMatchInput struct {
	TournamentID string
	Category     string
	Round        string
	Team1        []string
	Team2        []string
	Date         time.Time
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	events         EventPublisher
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	events EventPublisher,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		events:         publisherOrNoop(events),
		logger:         logger,
	}
}

// validTeam reports whether team is non-empty with distinct, non-blank player ids.
func validTeam(team []string) bool {
	if len(team) == 0 {
		return false
	}
	for _, id := range team {
		if strings.TrimSpace(id) == "" {
			return false
		}
	}
	return models.SameTeam(team, team)
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	round := strings.ToLower(strings.TrimSpace(input.Round))
	if round == "" {
		return nil, ErrRoundRequired
	}
	if input.Date.IsZero() {
		return nil, ErrMatchDateRequired
	}
	if !validTeam(input.Team1) || !validTeam(input.Team2) || !models.TeamsDisjoint(input.Team1, input.Team2) {
		return nil, ErrInvalidTeams
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeError("get tournament", err)
	}
	if tournament.Status.IsTerminal() {
		return nil, ErrTournamentClosed
	}
	category := strings.TrimSpace(input.Category)
	if !tournament.HasCategory(category) {
		return nil, ErrInvalidCategory
	}
	for _, playerID := range append(append([]string{}, input.Team1...), input.Team2...) {
		if !tournament.HasParticipant(playerID) {
			return nil, ErrPlayerNotParticipant
		}
	}

	match := &models.Match{
		ID:           uuid.NewString(),
		TournamentID: tournament.ID,
		Category:     category,
		Round:        round,
		Team1:        input.Team1,
		Team2:        input.Team2,
		Date:         input.Date.UTC(),
		Status:       models.MatchStatusScheduled,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPodiumSlotTaken):
			return nil, ErrRoundAlreadyScheduled
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		default:
			return nil, storeError("create match", err)
		}
	}
	publishTournamentEvent(s.events, match.TournamentID, realtime.EventMatchCreated, match)
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError("get match", err)
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID string, filter repositories.ListMatchesFilter) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeError("get tournament", err)
	}
	if filter.Round != nil {
		round := strings.ToLower(strings.TrimSpace(*filter.Round))
		filter.Round = &round
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, filter)
	if err != nil {
		return nil, storeError("list matches", err)
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}

func (s *matchService) CancelMatch(ctx context.Context, id string) (*models.Match, error) {
	err := s.matchRepo.Cancel(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrMatchNotFound):
		return nil, ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchNotScheduled):
		current, getErr := s.matchRepo.GetByID(ctx, id)
		if getErr == nil && current.Status == models.MatchStatusCompleted {
			return nil, ErrMatchAlreadyCompleted
		}
		return nil, ErrMatchNotScheduled
	default:
		return nil, storeError("cancel match", err)
	}

	match, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match cancelled", slog.String("match_id", id), slog.String("tournament_id", match.TournamentID))
	publishTournamentEvent(s.events, match.TournamentID, realtime.EventMatchCancelled, match)
	return match, nil
}
