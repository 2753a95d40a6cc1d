package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/beach-league/models"
	"github.com/lib/pq"
)

const playerColumns = `
	id, name, email, age, gender, avatar_key, is_admin, version, created_at,
	matches_played, wins, losses, win_rate, tournaments_won, podium_finishes,
	aces_served, longest_win_streak, current_win_streak`

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func scanPlayer(row rowScanner) (*models.PlayerProfile, error) {
	p := &models.PlayerProfile{}
	var age sql.NullInt64
	var gender, avatarKey sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &age, &gender, &avatarKey, &p.IsAdmin, &p.Version, &p.CreatedAt,
		&p.Stats.MatchesPlayed, &p.Stats.Wins, &p.Stats.Losses, &p.Stats.WinRate,
		&p.Stats.TournamentsWon, &p.Stats.PodiumFinishes, &p.Stats.AcesServed,
		&p.Stats.LongestWinStreak, &p.Stats.CurrentWinStreak,
	)
	if err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if gender.Valid {
		p.Gender = &gender.String
	}
	if avatarKey.Valid {
		p.AvatarKey = &avatarKey.String
	}
	return p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.PlayerProfile) error {
	query := `
		INSERT INTO players (id, name, email, age, gender, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING version, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, strings.ToLower(p.Email), p.Age, p.Gender, p.IsAdmin,
	).Scan(&p.Version, &p.CreatedAt)

	return handlePQError(err, map[string]error{
		"players_email_key": ErrPlayerEmailConflict,
	})
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.PlayerProfile, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, handlePQError(err, nil)
	}
	return p, nil
}

func (r *postgresPlayerRepository) GetByEmail(ctx context.Context, email string) (*models.PlayerProfile, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE email = $1`
	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, handlePQError(err, nil)
	}
	return p, nil
}

func (r *postgresPlayerRepository) UpdateIdentity(ctx context.Context, p *models.PlayerProfile) error {
	query := `UPDATE players SET name = $1, age = $2, gender = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, p.Name, p.Age, p.Gender, p.ID)
	if err != nil {
		return handlePQError(err, nil)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error {
	query := `UPDATE players SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update player avatar key: %w", handlePQError(err, nil))
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateStats(ctx context.Context, id string, expectedVersion int64, s models.PlayerStats) error {
	query := `
		UPDATE players SET
			matches_played = $1,
			wins = $2,
			losses = $3,
			win_rate = $4,
			tournaments_won = $5,
			podium_finishes = $6,
			aces_served = $7,
			longest_win_streak = $8,
			current_win_streak = $9,
			version = version + 1
		WHERE id = $10 AND version = $11`

	result, err := r.db.ExecContext(ctx, query,
		s.MatchesPlayed, s.Wins, s.Losses, s.WinRate, s.TournamentsWon, s.PodiumFinishes,
		s.AcesServed, s.LongestWinStreak, s.CurrentWinStreak,
		id, expectedVersion,
	)
	if err != nil {
		return handlePQError(err, nil)
	}
	if err := checkAffectedRows(result, ErrVersionConflict); err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		var exists bool
		if qErr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)`, id).Scan(&exists); qErr != nil {
			return handlePQError(qErr, nil)
		}
		if !exists {
			return ErrPlayerNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *postgresPlayerRepository) ListRanked(ctx context.Context, limit int) ([]*models.PlayerProfile, error) {
	query := `SELECT` + playerColumns + `
		FROM players
		WHERE is_admin = FALSE
		ORDER BY win_rate DESC, created_at ASC
		LIMIT $1`

	players, err := r.query(ctx, query, limit)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Code == "57014" || pqErr.Code.Class() == "42") {
			return nil, fmt.Errorf("%w: %s", ErrQueryUnavailable, pqErr.Message)
		}
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter ListPlayersFilter) ([]*models.PlayerProfile, error) {
	query := `SELECT` + playerColumns + ` FROM players ORDER BY created_at ASC`
	args := []interface{}{}
	argID := 1
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}
	return r.query(ctx, query, args...)
}

func (r *postgresPlayerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, handlePQError(err, nil)
	}
	return n, nil
}

func (r *postgresPlayerRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.PlayerProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, handlePQError(err, nil)
	}
	defer rows.Close()

	players := make([]*models.PlayerProfile, 0)
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}
