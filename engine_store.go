package goAccount

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/internal"
	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/password"
)

/*
====================================
STORE ADAPTERS
====================================
*/

func storeErrors() internalflows.StoreErrors {
	return internalflows.StoreErrors{
		AccountNotFound: ErrAccountNotFound,
		VersionConflict: ErrVersionConflict,
		IsEmailCollision: func(err error) bool {
			return ViolatedConstraint(err) == ConstraintEmail
		},
		IsTokenCollision: func(err error) bool {
			return ViolatedConstraint(err) == ConstraintToken
		},
	}
}

// mapStoreError keeps the store contract errors and folds everything else
// into ErrStoreUnavailable.
func (e *Engine) mapStoreError(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrUniqueViolation),
		errors.Is(err, ErrStoreUnavailable):
		return err
	}
	e.logger.Error(ctx, "account store failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (e *Engine) findByEmail(ctx context.Context, email string) (internalflows.AccountRecord, error) {
	acct, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		return internalflows.AccountRecord{}, e.mapStoreError(ctx, "find by email", err)
	}
	return toRecord(acct), nil
}

func (e *Engine) findByToken(ctx context.Context, token string) (internalflows.AccountRecord, error) {
	acct, err := e.accounts.FindByVerificationToken(ctx, token)
	if err != nil {
		return internalflows.AccountRecord{}, e.mapStoreError(ctx, "find by token", err)
	}
	return toRecord(acct), nil
}

func (e *Engine) createAccount(ctx context.Context, in internalflows.NewAccountRecord) (internalflows.AccountRecord, error) {
	acct, err := e.accounts.Create(ctx, NewAccount{
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Status:       AccountStatus(in.Status),
		Pending:      fromPendingRecord(in.Pending),
		Roles:        in.Roles,
	})
	if err != nil {
		return internalflows.AccountRecord{}, e.mapStoreError(ctx, "create", err)
	}
	return toRecord(acct), nil
}

func (e *Engine) updateAccount(ctx context.Context, id string, version int64, p internalflows.AccountPatch) (internalflows.AccountRecord, error) {
	upd := AccountUpdate{
		PasswordHash: p.PasswordHash,
		Pending:      fromPendingRecord(p.Pending),
		ClearPending: p.ClearPending,
	}
	if p.Status != nil {
		s := AccountStatus(*p.Status)
		upd.Status = &s
	}
	acct, err := e.accounts.UpdateFields(ctx, id, version, upd)
	if err != nil {
		return internalflows.AccountRecord{}, e.mapStoreError(ctx, "update", err)
	}
	return toRecord(acct), nil
}

func (e *Engine) addRole(ctx context.Context, accountID, role string) (internalflows.AccountRecord, error) {
	acct, err := e.accounts.AddRole(ctx, accountID, role)
	if err != nil {
		return internalflows.AccountRecord{}, e.mapStoreError(ctx, "add role", err)
	}
	return toRecord(acct), nil
}

func toRecord(a Account) internalflows.AccountRecord {
	r := internalflows.AccountRecord{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Status:       uint8(a.Status),
		Version:      a.Version,
		CreatedAt:    a.CreatedAt,
	}
	if a.Pending != nil {
		r.Pending = &internalflows.PendingRecord{
			Token:     a.Pending.Token,
			ExpiresAt: a.Pending.ExpiresAt,
			Purpose:   uint8(a.Pending.Purpose),
		}
	}
	for _, role := range a.Roles {
		r.Roles = append(r.Roles, role.Value)
	}
	return r
}

func fromPendingRecord(p *internalflows.PendingRecord) *PendingVerification {
	if p == nil {
		return nil
	}
	return &PendingVerification{
		Token:     p.Token,
		ExpiresAt: p.ExpiresAt,
		Purpose:   VerificationPurpose(p.Purpose),
	}
}

func recordView(r internalflows.AccountRecord) AccountView {
	roles := r.Roles
	if roles == nil {
		roles = []string{}
	}
	return AccountView{
		ID:        r.ID,
		Email:     r.Email,
		Status:    AccountStatus(r.Status).String(),
		Role:      r.PrimaryRole(),
		Roles:     roles,
		CreatedAt: r.CreatedAt,
	}
}

/*
====================================
HASHING AND TOKENS
====================================
*/

func (e *Engine) hashPassword(ctx context.Context, pw string) (string, error) {
	digest, err := e.hasher.Hash(ctx, pw)
	if err != nil {
		return "", mapHashError(err)
	}
	return digest, nil
}

// verifyPassword treats an unreadable stored digest as a mismatch.
func (e *Engine) verifyPassword(ctx context.Context, pw, digest string) (bool, error) {
	ok, err := e.hasher.Verify(ctx, pw, digest)
	switch {
	case err == nil:
		return ok, nil
	case errors.Is(err, password.ErrMalformedHash), errors.Is(err, password.ErrUnsupportedHash):
		e.logger.Warn(ctx, "stored password digest unreadable", "error", err)
		return false, nil
	default:
		return false, mapHashError(err)
	}
}

func (e *Engine) dummyVerify(ctx context.Context, pw string) {
	_, _ = e.hasher.Verify(ctx, pw, e.dummyHash)
}

func (e *Engine) needsUpgrade(digest string) bool {
	stale, err := e.hasher.NeedsUpgrade(digest)
	return err == nil && stale
}

func mapHashError(err error) error {
	if errors.Is(err, password.ErrPoolClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrHashingUnavailable, err)
	}
	return fmt.Errorf("hash password: %w", err)
}

func (e *Engine) tokens() internalflows.Tokens {
	return internalflows.Tokens{
		NewToken:      internal.NewVerificationToken,
		WellFormed:    internal.WellFormedVerificationToken,
		Now:           e.now,
		IssueAttempts: e.config.Accounts.IssueAttempts,
		IssueConflict: int(MetricTokenIssueConflict),
	}
}

func newSessionID() (string, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return "", err
	}
	return sid.String(), nil
}
