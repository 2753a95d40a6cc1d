package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/beach-league/models"
	"github.com/lib/pq"
)

const tournamentColumns = `
	id, name, description, location, start_date, end_date, status, categories, participants,
	podium_champion, podium_runner_up, podium_third_place, created_by, created_at`

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	var champion, runnerUp, thirdPlace []string
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Location, &t.StartDate, &t.EndDate, &t.Status,
		pq.Array(&t.Categories), pq.Array(&t.Participants),
		pq.Array(&champion), pq.Array(&runnerUp), pq.Array(&thirdPlace),
		&t.CreatedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	podium := &models.Podium{Champion: champion, RunnerUp: runnerUp, ThirdPlace: thirdPlace}
	if !podium.IsEmpty() {
		t.Podium = podium
	}
	if t.Participants == nil {
		t.Participants = []string{}
	}
	return t, nil
}

func nilIfEmpty(team []string) interface{} {
	if len(team) == 0 {
		return nil
	}
	return pq.Array(team)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, name, description, location, start_date, end_date, status, categories, participants, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	if t.Participants == nil {
		t.Participants = []string{}
	}
	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Description, t.Location, t.StartDate, t.EndDate, t.Status,
		pq.Array(t.Categories), pq.Array(t.Participants), t.CreatedBy,
	).Scan(&t.CreatedAt)

	return handlePQError(err, nil)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, handlePQError(err, nil)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.ParticipantID != nil {
		query += fmt.Sprintf(" AND $%d::text = ANY(participants)", argID)
		args = append(args, *filter.ParticipantID)
		argID++
	}

	query += " ORDER BY start_date ASC, created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, handlePQError(err, nil)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateDetails(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			location = $3,
			start_date = $4,
			end_date = $5,
			categories = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.Location, t.StartDate, t.EndDate, pq.Array(t.Categories), t.ID,
	)
	if err != nil {
		return handlePQError(err, nil)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id string, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return handlePQError(err, nil)
	}
	return r.resolveMiss(ctx, result, id, ErrStatusConflict)
}

func (r *postgresTournamentRepository) AddParticipant(ctx context.Context, id, playerID string) error {
	query := `
		UPDATE tournaments SET participants = array_append(participants, $2::text)
		WHERE id = $1 AND NOT ($2::text = ANY(participants))`
	result, err := r.db.ExecContext(ctx, query, id, playerID)
	if err != nil {
		return handlePQError(err, nil)
	}
	return r.resolveMiss(ctx, result, id, ErrAlreadyRegistered)
}

func (r *postgresTournamentRepository) RemoveParticipant(ctx context.Context, id, playerID string) error {
	query := `
		UPDATE tournaments SET participants = array_remove(participants, $2::text)
		WHERE id = $1 AND $2::text = ANY(participants)`
	result, err := r.db.ExecContext(ctx, query, id, playerID)
	if err != nil {
		return handlePQError(err, nil)
	}
	return r.resolveMiss(ctx, result, id, ErrNotRegistered)
}

func (r *postgresTournamentRepository) SetPodium(ctx context.Context, id string, podium models.Podium) error {
	query := `
		UPDATE tournaments SET
			podium_champion = COALESCE($1, podium_champion),
			podium_runner_up = COALESCE($2, podium_runner_up),
			podium_third_place = COALESCE($3, podium_third_place)
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query,
		nilIfEmpty(podium.Champion), nilIfEmpty(podium.RunnerUp), nilIfEmpty(podium.ThirdPlace), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update podium for tournament %s: %w", id, handlePQError(err, nil))
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tournaments GROUP BY status`)
	if err != nil {
		return nil, handlePQError(err, nil)
	}
	defer rows.Close()

	counts := make(map[models.TournamentStatus]int)
	for rows.Next() {
		var status models.TournamentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// resolveMiss distinguishes a missing tournament from a failed update condition.
func (r *postgresTournamentRepository) resolveMiss(ctx context.Context, result sql.Result, id string, conditionErr error) error {
	err := checkAffectedRows(result, conditionErr)
	if !errors.Is(err, conditionErr) {
		return err
	}
	var exists bool
	if qErr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tournaments WHERE id = $1)`, id).Scan(&exists); qErr != nil {
		return handlePQError(qErr, nil)
	}
	if !exists {
		return ErrTournamentNotFound
	}
	return conditionErr
}
