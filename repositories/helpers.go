package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// handlePQError maps Postgres error codes onto repository errors.
// uniqueViolations maps a constraint name to the error returned when it is violated.
func handlePQError(err error, uniqueViolations map[string]error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		if mapped, ok := uniqueViolations[pqErr.Constraint]; ok {
			return mapped
		}
	case "42501": // insufficient_privilege
		return fmt.Errorf("%w: %s", ErrPermissionDenied, pqErr.Message)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
