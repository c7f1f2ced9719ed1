package flows

import (
	"context"
	"errors"
)

type AccountMetrics struct {
	AccountCreated int
	RoleAssigned   int
}

type AccountEvents struct {
	AccountCreated string
	RoleAssigned   string
}

type AccountErrors struct {
	EngineNotReady         error
	EmailAlreadyRegistered error
}

type AccountDeps struct {
	Observer
	Store StoreErrors

	AdminRole string

	ValidateEmail    func(string) error
	ValidatePassword func(string) error
	HashPassword     func(ctx context.Context, password string) (string, error)

	Create  func(context.Context, NewAccountRecord) (AccountRecord, error)
	AddRole func(ctx context.Context, accountID, role string) (AccountRecord, error)

	Metrics AccountMetrics
	Events  AccountEvents
	Errors  AccountErrors
}

// RunCreateAccount inserts an active account holding the admin role. The
// store assigns the role in the same transaction as the insert.
func RunCreateAccount(ctx context.Context, email, password string, deps AccountDeps) (AccountRecord, error) {
	deps.normalize()
	if deps.Create == nil || deps.HashPassword == nil {
		return AccountRecord{}, deps.Errors.EngineNotReady
	}
	if deps.ValidateEmail != nil {
		if err := deps.ValidateEmail(email); err != nil {
			return AccountRecord{}, err
		}
	}
	if deps.ValidatePassword != nil {
		if err := deps.ValidatePassword(password); err != nil {
			return AccountRecord{}, err
		}
	}

	hash, err := deps.HashPassword(ctx, password)
	if err != nil {
		return AccountRecord{}, err
	}

	created, err := deps.Create(ctx, NewAccountRecord{
		Email:        email,
		PasswordHash: hash,
		Status:       StatusActive,
		Roles:        []string{deps.AdminRole},
	})
	if err != nil {
		if isEmailCollision(err, deps.Store) {
			err = deps.Errors.EmailAlreadyRegistered
		}
		deps.EmitAudit(ctx, deps.Events.AccountCreated, false, "", email, err, nil)
		return AccountRecord{}, err
	}

	deps.MetricInc(deps.Metrics.AccountCreated)
	deps.EmitAudit(ctx, deps.Events.AccountCreated, true, created.ID, created.Email, nil, func() map[string]string {
		return map[string]string{"role": deps.AdminRole}
	})
	deps.Logger.Info(ctx, "account created", "account_id", created.ID, "role", deps.AdminRole)
	return created, nil
}

// RunAddRole attaches an existing role to an account. Adding a role the
// account already holds is a no-op.
func RunAddRole(ctx context.Context, accountID, role string, deps AccountDeps) (AccountRecord, error) {
	deps.normalize()
	if deps.AddRole == nil {
		return AccountRecord{}, deps.Errors.EngineNotReady
	}

	updated, err := deps.AddRole(ctx, accountID, role)
	if err != nil {
		if !errors.Is(err, deps.Store.AccountNotFound) {
			deps.Logger.Warn(ctx, "role assignment failed", "account_id", accountID, "role", role, "error", err)
		}
		deps.EmitAudit(ctx, deps.Events.RoleAssigned, false, accountID, "", err, func() map[string]string {
			return map[string]string{"role": role}
		})
		return AccountRecord{}, err
	}

	deps.MetricInc(deps.Metrics.RoleAssigned)
	deps.EmitAudit(ctx, deps.Events.RoleAssigned, true, updated.ID, updated.Email, nil, func() map[string]string {
		return map[string]string{"role": role}
	})
	return updated, nil
}
