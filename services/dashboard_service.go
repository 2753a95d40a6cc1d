package services

import (
	"context"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
}

func NewDashboardService(
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
) DashboardService {
	return &dashboardService{
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var (
		stats    models.DashboardStats
		byStatus map[models.TournamentStatus]int
	)
	completed := models.MatchStatusCompleted

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.PlayersTotal, err = s.playerRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.tournamentRepo.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.MatchesTotal, err = s.matchRepo.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.MatchesCompleted, err = s.matchRepo.Count(gctx, &completed)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, storeError("dashboard stats", err)
	}

	stats.TournamentsByStatus = make(map[models.TournamentStatus]int, 4)
	for _, status := range []models.TournamentStatus{models.StatusUpcoming, models.StatusActive, models.StatusCompleted, models.StatusCancelled} {
		stats.TournamentsByStatus[status] = byStatus[status]
	}
	for _, n := range byStatus {
		stats.TournamentsTotal += n
	}
	return stats, nil
}
