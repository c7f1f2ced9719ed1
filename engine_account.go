package goAccount

import (
	"context"
	"errors"
	"strings"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// CreateAccount provisions an active administrator. The admin role is
// assigned in the same store transaction as the insert, so a failure leaves
// no account behind.
func (e *Engine) CreateAccount(ctx context.Context, email, password string) (AccountView, error) {
	if e == nil {
		return AccountView{}, ErrEngineNotReady
	}
	rec, err := internalflows.RunCreateAccount(ctx, normalizeEmail(email), password, e.accountFlowDeps())
	if err != nil {
		return AccountView{}, err
	}
	return recordView(rec), nil
}

// AddRole attaches the role named roleValue to the account.
func (e *Engine) AddRole(ctx context.Context, accountID, roleValue string) (AccountView, error) {
	if e == nil {
		return AccountView{}, ErrEngineNotReady
	}
	rec, err := internalflows.RunAddRole(ctx, accountID, strings.TrimSpace(roleValue), e.accountFlowDeps())
	if err != nil {
		return AccountView{}, err
	}
	return recordView(rec), nil
}

// ListAccounts returns the redacted view of every account.
func (e *Engine) ListAccounts(ctx context.Context) ([]AccountView, error) {
	if e == nil || e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	accts, err := e.accounts.List(ctx)
	if err != nil {
		return nil, e.mapStoreError(ctx, "list", err)
	}
	out := make([]AccountView, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.View())
	}
	return out, nil
}

// CreateRole adds a role to the catalogue.
func (e *Engine) CreateRole(ctx context.Context, value, description string) (Role, error) {
	if e == nil || e.roles == nil {
		return Role{}, ErrEngineNotReady
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Role{}, ErrInvalidRole
	}
	role, err := e.roles.CreateRole(ctx, value, description)
	if err != nil {
		if ViolatedConstraint(err) == ConstraintRole {
			return Role{}, ErrRoleExists
		}
		return Role{}, e.mapStoreError(ctx, "create role", err)
	}
	e.emitAudit(ctx, auditEventRoleCreated, true, "", "", nil, func() map[string]string {
		return map[string]string{"role": role.Value}
	})
	return role, nil
}

// GetRoleByValue looks up a role by its trimmed value.
func (e *Engine) GetRoleByValue(ctx context.Context, value string) (Role, error) {
	if e == nil || e.roles == nil {
		return Role{}, ErrEngineNotReady
	}
	role, err := e.roles.FindRoleByValue(ctx, strings.TrimSpace(value))
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return Role{}, err
		}
		return Role{}, e.mapStoreError(ctx, "find role", err)
	}
	return role, nil
}

func (e *Engine) accountFlowDeps() internalflows.AccountDeps {
	deps := internalflows.AccountDeps{
		Observer:         e.observer(),
		Store:            storeErrors(),
		AdminRole:        e.config.Accounts.AdminRole,
		ValidateEmail:    e.validateEmail,
		ValidatePassword: e.validatePassword,
		Metrics: internalflows.AccountMetrics{
			AccountCreated: int(MetricAccountCreated),
			RoleAssigned:   int(MetricRoleAssigned),
		},
		Events: internalflows.AccountEvents{
			AccountCreated: auditEventAccountCreated,
			RoleAssigned:   auditEventRoleAssigned,
		},
		Errors: internalflows.AccountErrors{
			EngineNotReady:         ErrEngineNotReady,
			EmailAlreadyRegistered: ErrEmailAlreadyRegistered,
		},
	}
	if e.accounts != nil {
		deps.Create = e.createAccount
		deps.AddRole = e.addRole
	}
	if e.hasher != nil {
		deps.HashPassword = e.hashPassword
	}
	return deps
}
