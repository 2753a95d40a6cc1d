package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/realtime"
	"github.com/Dosada05/beach-league/repositories"
	"golang.org/x/sync/errgroup"
)

// maxStatsAttempts bounds the re-read/re-apply loop of a player stats update.
const maxStatsAttempts = 5

type ResultService interface {
	// RecordResult completes a scheduled match and applies its outcome to the
	// podium, the players' statistics and the tournament status.
	RecordResult(ctx context.Context, matchID string, input RecordResultInput) (*models.Match, error)
}

type RecordResultInput struct {
	Score  string         `json:"score"`
	Winner []string       `json:"winner"`
	Aces   map[string]int `json:"aces,omitempty"`
}

type resultService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	lifecycle      TournamentService
	events         EventPublisher
	logger         *slog.Logger
	now            func() time.Time
}

func NewResultService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	lifecycle TournamentService,
	events EventPublisher,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		lifecycle:      lifecycle,
		events:         publisherOrNoop(events),
		logger:         logger,
		now:            time.Now,
	}
}

func (s *resultService) RecordResult(ctx context.Context, matchID string, input RecordResultInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError("get match", err)
	}
	switch match.Status {
	case models.MatchStatusCompleted:
		return nil, ErrMatchAlreadyCompleted
	case models.MatchStatusCancelled:
		return nil, ErrMatchNotScheduled
	}

	score := strings.TrimSpace(input.Score)
	if score == "" {
		return nil, ErrScoreRequired
	}

	var winner, loser []string
	switch match.WinningSide(input.Winner) {
	case 1:
		winner, loser = match.Team1, match.Team2
	case 2:
		winner, loser = match.Team2, match.Team1
	default:
		return nil, ErrInvalidWinner
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeError("get tournament", err)
	}
	switch tournament.Status {
	case models.StatusActive:
	case models.StatusCompleted, models.StatusCancelled:
		return nil, ErrTournamentClosed
	default:
		return nil, ErrTournamentNotActive
	}

	result := repositories.MatchResult{
		Score:       score,
		Winner:      winner,
		Aces:        matchAces(match, input.Aces),
		CompletedAt: s.now().UTC(),
	}

	sg := newSaga("record-result", s.logger,
		slog.String("match_id", match.ID),
		slog.String("tournament_id", match.TournamentID),
	)
	sg.add("complete-match", func(ctx context.Context) error {
		return s.completeMatch(ctx, match.ID, result)
	})
	if models.IsPodiumRound(match.Round) {
		sg.add("update-podium", func(ctx context.Context) error {
			return s.updatePodium(ctx, match, winner, loser)
		})
	}
	sg.add("update-player-stats", func(ctx context.Context) error {
		return s.updatePlayerStats(ctx, match, winner, result.Aces)
	})
	if models.IsPodiumRound(match.Round) {
		sg.add("auto-complete", func(ctx context.Context) error {
			_, err := s.lifecycle.MaybeAutoComplete(ctx, match.TournamentID)
			return err
		})
	}
	if err := sg.execute(ctx); err != nil {
		return nil, err
	}

	match.Status = models.MatchStatusCompleted
	match.Score = &score
	match.Winner = winner
	match.Aces = result.Aces
	match.CompletedAt = &result.CompletedAt

	publishTournamentEvent(s.events, match.TournamentID, realtime.EventMatchResultRecorded, match)
	return match, nil
}

// matchAces keeps the positive ace counts of players who took part in the match.
func matchAces(match *models.Match, aces map[string]int) map[string]int {
	if len(aces) == 0 {
		return nil
	}
	kept := make(map[string]int, len(aces))
	for _, playerID := range match.Players() {
		if n := aces[playerID]; n > 0 {
			kept[playerID] = n
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func (s *resultService) completeMatch(ctx context.Context, matchID string, result repositories.MatchResult) error {
	err := s.matchRepo.Complete(ctx, matchID, result)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchNotScheduled):
		// Lost a race with another writer; report what it did.
		current, getErr := s.matchRepo.GetByID(ctx, matchID)
		if getErr == nil && current.Status == models.MatchStatusCancelled {
			return ErrMatchNotScheduled
		}
		return ErrMatchAlreadyCompleted
	default:
		return storeError("complete match", err)
	}
}

func (s *resultService) updatePodium(ctx context.Context, match *models.Match, winner, loser []string) error {
	var podium models.Podium
	if models.IsFinal(match.Round) {
		podium.Champion = winner
		podium.RunnerUp = loser
	} else {
		podium.ThirdPlace = winner
	}
	if err := s.tournamentRepo.SetPodium(ctx, match.TournamentID, podium); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return storeError("update podium", err)
	}
	return nil
}

func (s *resultService) updatePlayerStats(ctx context.Context, match *models.Match, winner []string, aces map[string]int) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, playerID := range match.Players() {
		won := models.ContainsPlayer(winner, playerID)
		g.Go(func() error {
			return s.applyOutcome(gctx, match, playerID, won, aces[playerID])
		})
	}
	return g.Wait()
}

// applyOutcome updates one player's stats with an expected-version write,
// re-reading and re-applying on conflict. A missing profile is skipped.
func (s *resultService) applyOutcome(ctx context.Context, match *models.Match, playerID string, won bool, aces int) error {
	for attempt := 1; attempt <= maxStatsAttempts; attempt++ {
		player, err := s.playerRepo.GetByID(ctx, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				s.skipMissingPlayer(ctx, match, playerID)
				return nil
			}
			return storeError(fmt.Sprintf("get player %s", playerID), err)
		}

		stats := player.Stats
		stats.RecordMatch(won, aces)
		stats.RecordPodium(match.Round, won)

		err = s.playerRepo.UpdateStats(ctx, playerID, player.Version, stats)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repositories.ErrVersionConflict):
			s.logger.DebugContext(ctx, "player stats changed concurrently, retrying",
				slog.String("player_id", playerID),
				slog.String("match_id", match.ID),
				slog.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, repositories.ErrPlayerNotFound):
			s.skipMissingPlayer(ctx, match, playerID)
			return nil
		default:
			return storeError(fmt.Sprintf("update stats of player %s", playerID), err)
		}
	}
	return fmt.Errorf("%w: stats of player %s after %d attempts: %w",
		ErrUnknown, playerID, maxStatsAttempts, repositories.ErrVersionConflict)
}

func (s *resultService) skipMissingPlayer(ctx context.Context, match *models.Match, playerID string) {
	s.logger.WarnContext(ctx, "player profile not found, skipping stats update",
		slog.String("player_id", playerID),
		slog.String("match_id", match.ID),
		slog.String("tournament_id", match.TournamentID),
	)
}
