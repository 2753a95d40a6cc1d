package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/beach-league/models"
	"github.com/lib/pq"
)

const matchColumns = `
	id, tournament_id, category, round, team1, team2, match_date, status,
	score, winner, aces, completed_at, created_at`

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var score sql.NullString
	var aces []byte
	var completedAt sql.NullTime
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Category, &m.Round, pq.Array(&m.Team1), pq.Array(&m.Team2),
		&m.Date, &m.Status, &score, pq.Array(&m.Winner), &aces, &completedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		m.Score = &score.String
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}
	if len(aces) > 0 {
		if err := json.Unmarshal(aces, &m.Aces); err != nil {
			return nil, fmt.Errorf("failed to decode aces of match %s: %w", m.ID, err)
		}
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (id, tournament_id, category, round, podium_slot, team1, team2, match_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.TournamentID, m.Category, m.Round, podiumSlot(m.Round),
		pq.Array(m.Team1), pq.Array(m.Team2), m.Date, m.Status,
	).Scan(&m.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "matches_tournament_id_fkey" {
		return ErrTournamentNotFound
	}
	return handlePQError(err, map[string]error{
		"matches_tournament_podium_slot_key": ErrPodiumSlotTaken,
	})
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, handlePQError(err, nil)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string, filter ListMatchesFilter) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	argID := 2

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argID)
		args = append(args, *filter.Category)
		argID++
	}
	if filter.Round != nil {
		query += fmt.Sprintf(" AND round = $%d", argID)
		args = append(args, *filter.Round)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, handlePQError(err, nil)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Complete(ctx context.Context, id string, res MatchResult) error {
	var aces interface{}
	if len(res.Aces) > 0 {
		encoded, err := json.Marshal(res.Aces)
		if err != nil {
			return fmt.Errorf("failed to encode aces: %w", err)
		}
		aces = string(encoded)
	}

	query := `
		UPDATE matches SET status = $1, score = $2, winner = $3, aces = $4, completed_at = $5
		WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query,
		models.MatchStatusCompleted, res.Score, pq.Array(res.Winner), aces, res.CompletedAt,
		id, models.MatchStatusScheduled,
	)
	if err != nil {
		return handlePQError(err, nil)
	}
	return r.resolveMiss(ctx, result, id)
}

func (r *postgresMatchRepository) Cancel(ctx context.Context, id string) error {
	query := `UPDATE matches SET status = $1, podium_slot = NULL WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.MatchStatusCancelled, id, models.MatchStatusScheduled)
	if err != nil {
		return handlePQError(err, nil)
	}
	return r.resolveMiss(ctx, result, id)
}

func (r *postgresMatchRepository) Count(ctx context.Context, status *models.MatchStatus) (int, error) {
	query := `SELECT COUNT(*) FROM matches`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, handlePQError(err, nil)
	}
	return n, nil
}

func (r *postgresMatchRepository) resolveMiss(ctx context.Context, result sql.Result, id string) error {
	err := checkAffectedRows(result, ErrMatchNotScheduled)
	if !errors.Is(err, ErrMatchNotScheduled) {
		return err
	}
	var exists bool
	if qErr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); qErr != nil {
		return handlePQError(qErr, nil)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return ErrMatchNotScheduled
}
