package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// constraintNames maps schema constraint names to the names goAccount uses.
var constraintNames = map[string]string{
	"accounts_email_key":         goAccount.ConstraintEmail,
	"accounts_pending_token_key": goAccount.ConstraintToken,
	"roles_value_key":            goAccount.ConstraintRole,
}

func newAccountID() string {
	return uuid.NewString()
}

// mapError translates driver errors into goAccount store errors. notFound is
// returned for sql.ErrNoRows.
func mapError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		name, ok := constraintNames[pgErr.ConstraintName]
		if !ok {
			name = pgErr.ConstraintName
		}
		return &goAccount.UniqueViolationError{Constraint: name, Err: err}
	}
	return fmt.Errorf("db error: %s: %w", op, err)
}
