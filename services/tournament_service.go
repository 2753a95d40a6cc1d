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
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTournamentListLimit = 50
	maxTournamentListLimit     = 200

	// maxStatusAttempts bounds retries when the stored status changes under a transition.
	maxStatusAttempts = 3
)

type TournamentService interface {
	CreateTournament(ctx context.Context, createdBy string, input CreateTournamentInput) (*models.Tournament, error)
	// GetTournament returns the tournament with its matches loaded from the match store.
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error)
	UpdateTournamentDetails(ctx context.Context, id string, input CreateTournamentInput) (*models.Tournament, error)
	SetStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error)
	// MaybeAutoComplete completes an active tournament once both a final and a third-place
	// match are completed. It reports whether the status changed.
	MaybeAutoComplete(ctx context.Context, id string) (bool, error)
	RegisterPlayer(ctx context.Context, tournamentID, playerID string) error
	RegisterPlayerByEmail(ctx context.Context, tournamentID, email string) (*models.PlayerProfile, error)
	RemovePlayer(ctx context.Context, tournamentID, playerID string) error
}

type CreateTournamentInput struct {
	Name        string
	Description string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	Categories  []string
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	playerRepo     repositories.PlayerRepository
	events         EventPublisher
	logger         *slog.Logger
	now            func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	events EventPublisher,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		events:         publisherOrNoop(events),
		logger:         logger,
		now:            time.Now,
	}
}

func validateTournamentInput(input *CreateTournamentInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	input.Categories = normalizeCategories(input.Categories)

	if input.Name == "" {
		return ErrTournamentNameRequired
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return ErrTournamentDatesRequired
	}
	if input.EndDate.Before(input.StartDate) {
		return ErrTournamentInvalidDateRange
	}
	if len(input.Categories) == 0 {
		return ErrCategoriesRequired
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, createdBy string, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(&input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Description:  input.Description,
		Location:     input.Location,
		StartDate:    input.StartDate.UTC(),
		EndDate:      input.EndDate.UTC(),
		Status:       models.InitialStatus(input.StartDate, s.now()),
		Categories:   input.Categories,
		Participants: []string{},
		CreatedBy:    createdBy,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, storeError("create tournament", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var (
		tournament *models.Tournament
		matches    []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.getTournament(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, id, repositories.ListMatchesFilter{})
		if err != nil {
			return storeError("list matches", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		tournament.Matches = append(tournament.Matches, *m)
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultTournamentListLimit
	}
	if filter.Limit > maxTournamentListLimit {
		filter.Limit = maxTournamentListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	search := strings.TrimSpace(filter.Search)
	if search == "" {
		tournaments, err := s.tournamentRepo.List(ctx, filter)
		if err != nil {
			return nil, storeError("list tournaments", err)
		}
		if tournaments == nil {
			return []*models.Tournament{}, nil
		}
		return tournaments, nil
	}

	// Fuzzy matching has no store equivalent: filter the full listing, then page it here.
	limit, offset := filter.Limit, filter.Offset
	filter.Limit, filter.Offset = 0, 0
	all, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, storeError("list tournaments", err)
	}
	matched := make([]*models.Tournament, 0)
	for _, t := range all {
		if fuzzy.MatchNormalizedFold(search, t.Name) || fuzzy.MatchNormalizedFold(search, t.Location) {
			matched = append(matched, t)
		}
	}
	if offset >= len(matched) {
		return []*models.Tournament{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *tournamentService) UpdateTournamentDetails(ctx context.Context, id string, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(&input); err != nil {
		return nil, err
	}
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status.IsTerminal() {
		return nil, ErrTournamentClosed
	}

	tournament.Name = input.Name
	tournament.Description = input.Description
	tournament.Location = input.Location
	tournament.StartDate = input.StartDate.UTC()
	tournament.EndDate = input.EndDate.UTC()
	tournament.Categories = input.Categories

	if err := s.tournamentRepo.UpdateDetails(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeError("update tournament", err)
	}
	publishTournamentEvent(s.events, id, realtime.EventTournamentUpdated, tournament)
	return tournament, nil
}

func (s *tournamentService) SetStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		tournament, err := s.getTournament(ctx, id)
		if err != nil {
			return nil, err
		}
		if !isValidStatusTransition(tournament.Status, status) {
			return nil, ErrInvalidTransition
		}

		err = s.tournamentRepo.UpdateStatus(ctx, id, tournament.Status, status)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "tournament status changed",
				slog.String("tournament_id", id),
				slog.String("from", string(tournament.Status)),
				slog.String("to", string(status)),
			)
			tournament.Status = status
			publishTournamentEvent(s.events, id, realtime.EventTournamentStatus, tournament)
			return tournament, nil
		case errors.Is(err, repositories.ErrStatusConflict):
			continue
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		default:
			return nil, storeError("update tournament status", err)
		}
	}
	return nil, ErrInvalidTransition
}

func (s *tournamentService) MaybeAutoComplete(ctx context.Context, id string) (bool, error) {
	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		tournament, err := s.getTournament(ctx, id)
		if err != nil {
			return false, err
		}
		if tournament.Status != models.StatusActive {
			return false, nil
		}

		completed := models.MatchStatusCompleted
		matches, err := s.matchRepo.ListByTournament(ctx, id, repositories.ListMatchesFilter{Status: &completed})
		if err != nil {
			return false, storeError("list completed matches", err)
		}
		var hasFinal, hasThirdPlace bool
		for _, m := range matches {
			hasFinal = hasFinal || models.IsFinal(m.Round)
			hasThirdPlace = hasThirdPlace || models.IsThirdPlace(m.Round)
		}
		if !hasFinal || !hasThirdPlace {
			return false, nil
		}

		err = s.tournamentRepo.UpdateStatus(ctx, id, models.StatusActive, models.StatusCompleted)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "tournament completed automatically", slog.String("tournament_id", id))
			tournament.Status = models.StatusCompleted
			publishTournamentEvent(s.events, id, realtime.EventTournamentStatus, tournament)
			return true, nil
		case errors.Is(err, repositories.ErrStatusConflict):
			continue
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return false, ErrTournamentNotFound
		default:
			return false, storeError("complete tournament", err)
		}
	}
	return false, nil
}

func (s *tournamentService) RegisterPlayer(ctx context.Context, tournamentID, playerID string) error {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status.IsTerminal() {
		return ErrTournamentClosed
	}
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return storeError("get player", err)
	}

	if err := s.tournamentRepo.AddParticipant(ctx, tournamentID, playerID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyRegistered):
			return ErrAlreadyRegistered
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return ErrTournamentNotFound
		default:
			return storeError("register player", err)
		}
	}
	publishTournamentEvent(s.events, tournamentID, realtime.EventPlayerRegistered, map[string]string{"player_id": playerID})
	return nil
}

func (s *tournamentService) RegisterPlayerByEmail(ctx context.Context, tournamentID, email string) (*models.PlayerProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	player, err := s.playerRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, storeError("get player by email", err)
	}
	if err := s.RegisterPlayer(ctx, tournamentID, player.ID); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *tournamentService) RemovePlayer(ctx context.Context, tournamentID, playerID string) error {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status.IsTerminal() {
		return ErrTournamentClosed
	}
	if err := s.tournamentRepo.RemoveParticipant(ctx, tournamentID, playerID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotRegistered):
			return ErrNotRegistered
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return ErrTournamentNotFound
		default:
			return storeError("remove player", err)
		}
	}
	publishTournamentEvent(s.events, tournamentID, realtime.EventPlayerRemoved, map[string]string{"player_id": playerID})
	return nil
}

func (s *tournamentService) getTournament(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeError("get tournament", err)
	}
	return tournament, nil
}
