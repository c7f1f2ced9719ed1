package postgres

import (
	"context"

	goAccount "github.com/MrEthical07/goAccount"
)

// CreateRole adds a role to the catalogue.
func (s *Store) CreateRole(ctx context.Context, value, description string) (goAccount.Role, error) {
	query :=
		`INSERT INTO roles (value, description)
		 VALUES ($1, $2)
		 RETURNING id`

	r := goAccount.Role{Value: value, Description: description}
	if err := s.db.QueryRowContext(ctx, query, value, description).Scan(&r.ID); err != nil {
		return goAccount.Role{}, mapError("create role", err, nil)
	}
	return r, nil
}

// FindRoleByValue looks a role up by its value.
func (s *Store) FindRoleByValue(ctx context.Context, value string) (goAccount.Role, error) {
	return findRole(ctx, s.db, value)
}

func findRole(ctx context.Context, db DBTX, value string) (goAccount.Role, error) {
	query :=
		`SELECT id, value, description FROM roles
		 WHERE value = $1`

	var r goAccount.Role
	if err := db.QueryRowContext(ctx, query, value).Scan(&r.ID, &r.Value, &r.Description); err != nil {
		return goAccount.Role{}, mapError("find role", err, goAccount.ErrRoleNotFound)
	}
	return r, nil
}

func insertAccountRole(ctx context.Context, db DBTX, accountID string, roleID int64, position int) error {
	query :=
		`INSERT INTO account_roles (account_id, role_id, position)
		 VALUES ($1, $2, $3)`

	if _, err := db.ExecContext(ctx, query, accountID, roleID, position); err != nil {
		return mapError("assign role", err, nil)
	}
	return nil
}

// loadRoles returns the roles of an account in assignment order.
func loadRoles(ctx context.Context, db DBTX, accountID string) ([]goAccount.Role, error) {
	query :=
		`SELECT r.id, r.value, r.description
		 FROM account_roles ar JOIN roles r ON r.id = ar.role_id
		 WHERE ar.account_id = $1
		 ORDER BY ar.position`

	rows, err := db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []goAccount.Role
	for rows.Next() {
		var r goAccount.Role
		if err := rows.Scan(&r.ID, &r.Value, &r.Description); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
