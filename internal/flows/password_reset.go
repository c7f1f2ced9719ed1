package flows

import (
	"context"
	"errors"
	"time"
)

type PasswordResetMetrics struct {
	PasswordResetRequest int
	PasswordResetIssued  int
	PasswordResetSuccess int
	PasswordResetFailure int
}

type PasswordResetEvents struct {
	PasswordResetRequest string
	PasswordResetConfirm string
}

type PasswordResetErrors struct {
	EngineNotReady       error
	InvalidOrExpiredLink error
	AccountNotActive     error
}

type PasswordResetDeps struct {
	Observer
	Tokens
	Store StoreErrors

	ResetTTL time.Duration

	ValidateEmail    func(string) error
	ValidatePassword func(string) error
	HashPassword     func(ctx context.Context, password string) (string, error)

	FindByEmail func(context.Context, string) (AccountRecord, error)
	FindByToken func(context.Context, string) (AccountRecord, error)
	Update      func(context.Context, string, int64, AccountPatch) (AccountRecord, error)

	SendPasswordReset func(ctx context.Context, email, token string) error

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

func (d *PasswordResetDeps) ready() bool {
	return d.NewToken != nil && d.FindByEmail != nil && d.FindByToken != nil &&
		d.Update != nil && d.HashPassword != nil
}

// RunForgotPassword issues a reset token for an active account. The result
// is the same whether or not anything was issued. Only the first lookup can
// fail the call; later failures are logged.
func RunForgotPassword(ctx context.Context, email string, deps PasswordResetDeps) (string, error) {
	deps.Observer.normalize()
	deps.Tokens.normalize()
	if !deps.ready() {
		return "", deps.Errors.EngineNotReady
	}
	if deps.ValidateEmail != nil {
		if err := deps.ValidateEmail(email); err != nil {
			return "", err
		}
	}

	deps.MetricInc(deps.Metrics.PasswordResetRequest)
	audit := func(accountID string, issued bool) {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, accountID, email, nil, func() map[string]string {
			if issued {
				return map[string]string{"issued": "true"}
			}
			return map[string]string{"issued": "false"}
		})
	}

	for attempt := 0; attempt < deps.IssueAttempts; attempt++ {
		acct, err := deps.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, deps.Store.AccountNotFound) {
				audit("", false)
				return email, nil
			}
			if attempt == 0 || isContextErr(err) {
				return "", err
			}
			deps.Logger.Warn(ctx, "reset lookup failed on retry", "error", err)
			return email, nil
		}
		if acct.Status != StatusActive {
			audit(acct.ID, false)
			return email, nil
		}

		token, err := deps.NewToken()
		if err != nil {
			deps.Logger.Error(ctx, "reset token generation failed", "account_id", acct.ID, "error", err)
			return email, nil
		}
		updated, err := deps.Update(ctx, acct.ID, acct.Version, AccountPatch{
			Pending: &PendingRecord{
				Token:     token,
				ExpiresAt: deps.Now().Add(deps.ResetTTL),
				Purpose:   PurposePasswordReset,
			},
		})
		if err != nil {
			if retryable(err, deps.Store) {
				deps.MetricInc(deps.IssueConflict)
				continue
			}
			deps.Logger.Warn(ctx, "reset token not stored", "account_id", acct.ID, "error", err)
			return email, nil
		}

		deps.MetricInc(deps.Metrics.PasswordResetIssued)
		audit(updated.ID, true)
		deps.notify(ctx, "password_reset", updated, deps.SendPasswordReset, token)
		return email, nil
	}

	deps.Logger.Warn(ctx, "reset token not issued", "attempts", deps.IssueAttempts)
	return email, nil
}

// RunResetPassword consumes a reset token and replaces the password.
func RunResetPassword(ctx context.Context, token, password string, deps PasswordResetDeps) (string, error) {
	deps.Observer.normalize()
	deps.Tokens.normalize()
	if !deps.ready() {
		return "", deps.Errors.EngineNotReady
	}

	fail := func(accountID, email string, err error, reason string) (string, error) {
		deps.MetricInc(deps.Metrics.PasswordResetFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return "", err
	}

	if deps.ValidatePassword != nil {
		if err := deps.ValidatePassword(password); err != nil {
			return "", err
		}
	}
	if !deps.WellFormed(token) {
		return fail("", "", deps.Errors.InvalidOrExpiredLink, "malformed_token")
	}

	acct, err := deps.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, deps.Store.AccountNotFound) {
			return fail("", "", deps.Errors.InvalidOrExpiredLink, "unknown_token")
		}
		return "", err
	}
	if acct.Pending == nil || acct.Pending.Purpose != PurposePasswordReset {
		return fail(acct.ID, acct.Email, deps.Errors.InvalidOrExpiredLink, "wrong_purpose")
	}
	if acct.Pending.Expired(deps.Now()) {
		return fail(acct.ID, acct.Email, deps.Errors.InvalidOrExpiredLink, "expired")
	}
	if acct.Status != StatusActive {
		return fail(acct.ID, acct.Email, deps.Errors.AccountNotActive, "not_active")
	}

	hash, err := deps.HashPassword(ctx, password)
	if err != nil {
		return "", err
	}
	updated, err := deps.Update(ctx, acct.ID, acct.Version, AccountPatch{
		PasswordHash: &hash,
		ClearPending: true,
	})
	if err != nil {
		if errors.Is(err, deps.Store.VersionConflict) || errors.Is(err, deps.Store.AccountNotFound) {
			return fail(acct.ID, acct.Email, deps.Errors.InvalidOrExpiredLink, "token_replaced")
		}
		return "", err
	}

	deps.MetricInc(deps.Metrics.PasswordResetSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, updated.ID, updated.Email, nil, nil)
	return updated.Email, nil
}
