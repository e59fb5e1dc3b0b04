package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	uniqueViolation   = "23505"
	stringDataTooLong = "22001"
)

// unique constraint name -> duplicated field
var uniqueConstraints = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

const openCheckInIndex = "check_ins_one_open_per_user"

// translate maps driver errors onto the package sentinels
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == stringDataTooLong {
		return fmt.Errorf("failed to %s: %w", op, ErrValueTooLong)
	}
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == openCheckInIndex {
			return ErrOpenCheckIn
		}
		if field, ok := uniqueConstraints[pqErr.Constraint]; ok {
			return &DuplicateError{Field: field}
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

// versionMiss is called after a compare-and-swap update matched no row.
// It tells a missing row apart from a concurrent modification.
func versionMiss(ctx context.Context, db sqlx.QueryerContext, table, id string) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := sqlx.GetContext(ctx, db, &exists, query, id); err != nil {
		return fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleWrite
}
