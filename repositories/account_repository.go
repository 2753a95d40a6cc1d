package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Dosada05/beach-league/models"
)

type postgresAccountRepository struct {
	db *sql.DB
}

func NewPostgresAccountRepository(db *sql.DB) AccountRepository {
	return &postgresAccountRepository{db: db}
}

func (r *postgresAccountRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		a.ID, strings.ToLower(a.Email), a.DisplayName, a.PasswordHash,
	).Scan(&a.CreatedAt)

	return handlePQError(err, map[string]error{
		"accounts_email_key": ErrAccountEmailConflict,
	})
}

func (r *postgresAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, email, display_name, password_hash, created_at FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *postgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT id, email, display_name, password_hash, created_at FROM accounts WHERE email = $1`
	return r.getOne(ctx, query, strings.ToLower(email))
}

func (r *postgresAccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return handlePQError(err, nil)
	}
	return checkAffectedRows(result, ErrAccountNotFound)
}

func (r *postgresAccountRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Account, error) {
	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, handlePQError(err, nil)
	}
	return a, nil
}
