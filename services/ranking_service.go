package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/Dosada05/beach-league/storage"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type RankingEntry struct {
	Position int                   `json:"position"`
	Player   *models.PlayerProfile `json:"player"`
}

type RankingService interface {
	// GetRanking returns the first limit non-admin players by win rate, highest first.
	// Ties keep the players' creation order. limit must be positive.
	GetRanking(ctx context.Context, limit int) ([]*models.PlayerProfile, error)
	// SearchRanking ranks like GetRanking and then keeps the entries whose name
	// matches term. Positions refer to the unfiltered ranking.
	SearchRanking(ctx context.Context, limit int, term string) ([]RankingEntry, error)
}

type rankingService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewRankingService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader, logger *slog.Logger) RankingService {
	return &rankingService{
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *rankingService) GetRanking(ctx context.Context, limit int) ([]*models.PlayerProfile, error) {
	if limit <= 0 {
		return nil, ErrInvalidRankingLimit
	}

	ranked, err := s.playerRepo.ListRanked(ctx, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, storeError("rank players", err)
		}
		s.logger.WarnContext(ctx, "ranked query unavailable, ranking in memory", slog.Any("error", err))
		ranked, err = s.rankInMemory(ctx, limit)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range ranked {
		populateAvatarURL(p, s.uploader)
	}
	if ranked == nil {
		return []*models.PlayerProfile{}, nil
	}
	return ranked, nil
}

// rankInMemory fetches every profile in creation order, then filters and sorts locally.
// The stable sort keeps ties in the same order as the store query.
func (s *rankingService) rankInMemory(ctx context.Context, limit int) ([]*models.PlayerProfile, error) {
	all, err := s.playerRepo.List(ctx, repositories.ListPlayersFilter{})
	if err != nil {
		return nil, storeError("list players", err)
	}
	eligible := make([]*models.PlayerProfile, 0, len(all))
	for _, p := range all {
		if !p.IsAdmin {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Stats.WinRate > eligible[j].Stats.WinRate
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (s *rankingService) SearchRanking(ctx context.Context, limit int, term string) ([]RankingEntry, error) {
	ranked, err := s.GetRanking(ctx, limit)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	entries := make([]RankingEntry, 0, len(ranked))
	for i, p := range ranked {
		if term != "" && !fuzzy.MatchNormalizedFold(term, p.Name) {
			continue
		}
		entries = append(entries, RankingEntry{Position: i + 1, Player: p})
	}
	return entries, nil
}
