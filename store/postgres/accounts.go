package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
)

const accountColumns = `id, email, password_hash, status, pending_token, pending_expires_at, pending_purpose, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (goAccount.Account, error) {
	var (
		a         goAccount.Account
		hash      sql.NullString
		status    string
		token     sql.NullString
		expiresAt sql.NullTime
		purpose   sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Email, &hash, &status, &token, &expiresAt, &purpose, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return goAccount.Account{}, err
	}

	st, err := goAccount.ParseAccountStatus(status)
	if err != nil {
		return goAccount.Account{}, err
	}
	a.Status = st
	a.PasswordHash = hash.String

	if token.Valid {
		p, err := goAccount.ParseVerificationPurpose(purpose.String)
		if err != nil {
			return goAccount.Account{}, err
		}
		a.Pending = &goAccount.PendingVerification{
			Token:     token.String,
			ExpiresAt: expiresAt.Time,
			Purpose:   p,
		}
	}
	return a, nil
}

func (s *Store) findOne(ctx context.Context, op, where string, arg any) (goAccount.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return goAccount.Account{}, mapError(op, err, goAccount.ErrAccountNotFound)
	}
	if a.Roles, err = loadRoles(ctx, s.db, a.ID); err != nil {
		return goAccount.Account{}, mapError(op, err, nil)
	}
	return a, nil
}

// FindByEmail returns the account with exactly this email.
func (s *Store) FindByEmail(ctx context.Context, email string) (goAccount.Account, error) {
	return s.findOne(ctx, "find by email", `email = $1`, email)
}

// FindByVerificationToken returns the account whose pending slot holds token.
func (s *Store) FindByVerificationToken(ctx context.Context, token string) (goAccount.Account, error) {
	return s.findOne(ctx, "find by token", `pending_token = $1`, token)
}

// Create inserts an account and assigns its roles in one transaction.
func (s *Store) Create(ctx context.Context, in goAccount.NewAccount) (goAccount.Account, error) {
	now := s.timestamp()
	a := goAccount.Account{
		ID:           s.newID(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Status:       in.Status,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Pending != nil {
		p := *in.Pending
		a.Pending = &p
	}
	token, expiresAt, purpose := pendingArgs(a.Pending)

	err := withTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		query :=
			`INSERT INTO accounts (id, email, password_hash, status, pending_token, pending_expires_at, pending_purpose, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		if _, err := tx.ExecContext(ctx, query,
			a.ID, a.Email, nullString(a.PasswordHash), a.Status.String(),
			token, expiresAt, purpose, a.Version, now, now); err != nil {
			return mapError("create", err, nil)
		}

		for i, value := range in.Roles {
			role, err := findRole(ctx, tx, value)
			if err != nil {
				return err
			}
			if err := insertAccountRole(ctx, tx, a.ID, role.ID, i); err != nil {
				return err
			}
			a.Roles = append(a.Roles, role)
		}
		return nil
	})
	if err != nil {
		return goAccount.Account{}, err
	}
	return a, nil
}

// UpdateFields applies upd when the stored version equals expectedVersion.
func (s *Store) UpdateFields(ctx context.Context, id string, expectedVersion int64, upd goAccount.AccountUpdate) (goAccount.Account, error) {
	sets, args := updateAssignments(upd, s.timestamp())
	args = append(args, id, expectedVersion)

	query := fmt.Sprintf(
		`UPDATE accounts SET %s WHERE id = $%d AND version = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), accountColumns,
	)

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return goAccount.Account{}, s.missOrConflict(ctx, id)
	}
	if err != nil {
		return goAccount.Account{}, mapError("update", err, nil)
	}
	if a.Roles, err = loadRoles(ctx, s.db, a.ID); err != nil {
		return goAccount.Account{}, mapError("update", err, nil)
	}
	return a, nil
}

// missOrConflict tells a missing row from a stale version after a
// conditional update matched nothing.
func (s *Store) missOrConflict(ctx context.Context, id string) error {
	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM accounts WHERE id = $1`, id).Scan(&version)
	if err != nil {
		return mapError("update", err, goAccount.ErrAccountNotFound)
	}
	return goAccount.ErrVersionConflict
}

func updateAssignments(upd goAccount.AccountUpdate, now time.Time) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.PasswordHash != nil {
		add("password_hash", nullString(*upd.PasswordHash))
	}
	if upd.Status != nil {
		add("status", upd.Status.String())
	}
	switch {
	case upd.ClearPending:
		sets = append(sets, "pending_token = NULL", "pending_expires_at = NULL", "pending_purpose = NULL")
	case upd.Pending != nil:
		token, expiresAt, purpose := pendingArgs(upd.Pending)
		add("pending_token", token)
		add("pending_expires_at", expiresAt)
		add("pending_purpose", purpose)
	}
	add("updated_at", now)
	sets = append(sets, "version = version + 1")
	return sets, args
}

// AddRole attaches an existing role to an account. Attaching a role the
// account already holds leaves it unchanged.
func (s *Store) AddRole(ctx context.Context, accountID, roleValue string) (goAccount.Account, error) {
	var a goAccount.Account

	err := withTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

		var err error
		a, err = scanAccount(tx.QueryRowContext(ctx, query, accountID))
		if err != nil {
			return mapError("add role", err, goAccount.ErrAccountNotFound)
		}
		if a.Roles, err = loadRoles(ctx, tx, a.ID); err != nil {
			return mapError("add role", err, nil)
		}
		for _, have := range a.Roles {
			if have.Value == roleValue {
				return nil
			}
		}

		role, err := findRole(ctx, tx, roleValue)
		if err != nil {
			return err
		}
		if err := insertAccountRole(ctx, tx, a.ID, role.ID, len(a.Roles)); err != nil {
			return err
		}

		now := s.timestamp()
		if err := tx.QueryRowContext(ctx,
			`UPDATE accounts SET version = version + 1, updated_at = $1 WHERE id = $2 RETURNING version`,
			now, a.ID).Scan(&a.Version); err != nil {
			return mapError("add role", err, nil)
		}
		a.UpdatedAt = now
		a.Roles = append(a.Roles, role)
		return nil
	})
	if err != nil {
		return goAccount.Account{}, err
	}
	return a, nil
}

// List returns every account ordered by creation time.
func (s *Store) List(ctx context.Context) ([]goAccount.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, email`)
	if err != nil {
		return nil, mapError("list", err, nil)
	}
	defer rows.Close()

	var (
		out   []goAccount.Account
		index = map[string]int{}
	)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapError("list", err, nil)
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list", err, nil)
	}
	if len(out) == 0 {
		return out, nil
	}

	roleRows, err := s.db.QueryContext(ctx,
		`SELECT ar.account_id, r.id, r.value, r.description
		 FROM account_roles ar JOIN roles r ON r.id = ar.role_id
		 ORDER BY ar.account_id, ar.position`)
	if err != nil {
		return nil, mapError("list roles", err, nil)
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var (
			accountID string
			r         goAccount.Role
		)
		if err := roleRows.Scan(&accountID, &r.ID, &r.Value, &r.Description); err != nil {
			return nil, mapError("list roles", err, nil)
		}
		if i, ok := index[accountID]; ok {
			out[i].Roles = append(out[i].Roles, r)
		}
	}
	if err := roleRows.Err(); err != nil {
		return nil, mapError("list roles", err, nil)
	}
	return out, nil
}

func pendingArgs(p *goAccount.PendingVerification) (token, expiresAt, purpose any) {
	if p == nil {
		return nil, nil, nil
	}
	return p.Token, p.ExpiresAt.UTC(), p.Purpose.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
