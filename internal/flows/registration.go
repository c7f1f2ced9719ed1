package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type RegistrationMetrics struct {
	RegistrationStarted       int
	RegistrationResent        int
	RegistrationDuplicate     int
	RegistrationConfirmed     int
	RegistrationConfirmFailed int
}

type RegistrationEvents struct {
	RegistrationStarted   string
	RegistrationConfirmed string
}

type RegistrationErrors struct {
	EngineNotReady         error
	EmailAlreadyRegistered error
	InvalidLink            error
	LinkExpired            error
	StoreUnavailable       error
}

type RegistrationDeps struct {
	Observer
	Tokens
	Store StoreErrors

	ConfirmationTTL time.Duration
	DefaultRole     string

	ValidateEmail    func(string) error
	ValidatePassword func(string) error
	HashPassword     func(ctx context.Context, password string) (string, error)

	FindByEmail func(context.Context, string) (AccountRecord, error)
	FindByToken func(context.Context, string) (AccountRecord, error)
	Create      func(context.Context, NewAccountRecord) (AccountRecord, error)
	Update      func(context.Context, string, int64, AccountPatch) (AccountRecord, error)

	SendConfirmation func(ctx context.Context, email, token string) error

	Metrics RegistrationMetrics
	Events  RegistrationEvents
	Errors  RegistrationErrors
}

func (d *RegistrationDeps) ready() bool {
	return d.NewToken != nil && d.FindByEmail != nil && d.FindByToken != nil &&
		d.Create != nil && d.Update != nil && d.HashPassword != nil
}

// RunStartRegistration creates a pending account or refreshes the token of
// an existing pending one, then mails the confirmation link. It returns the
// email the acknowledgement refers to.
func RunStartRegistration(ctx context.Context, email string, deps RegistrationDeps) (string, error) {
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

	for attempt := 0; attempt < deps.IssueAttempts; attempt++ {
		token, err := deps.NewToken()
		if err != nil {
			return "", fmt.Errorf("verification token: %w", err)
		}
		pending := &PendingRecord{
			Token:     token,
			ExpiresAt: deps.Now().Add(deps.ConfirmationTTL),
			Purpose:   PurposeConfirmRegistration,
		}

		acct, err := deps.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if acct.Status != StatusPending {
				deps.MetricInc(deps.Metrics.RegistrationDuplicate)
				deps.EmitAudit(ctx, deps.Events.RegistrationStarted, false, acct.ID, email, deps.Errors.EmailAlreadyRegistered, nil)
				return "", deps.Errors.EmailAlreadyRegistered
			}
			updated, err := deps.Update(ctx, acct.ID, acct.Version, AccountPatch{Pending: pending})
			if err != nil {
				if retryable(err, deps.Store) {
					deps.MetricInc(deps.IssueConflict)
					continue
				}
				return "", err
			}
			deps.MetricInc(deps.Metrics.RegistrationResent)
			deps.EmitAudit(ctx, deps.Events.RegistrationStarted, true, updated.ID, email, nil, func() map[string]string {
				return map[string]string{"resent": "true"}
			})
			deps.notify(ctx, "confirmation", updated, deps.SendConfirmation, token)
			return updated.Email, nil

		case errors.Is(err, deps.Store.AccountNotFound):
			created, err := deps.Create(ctx, NewAccountRecord{
				Email:   email,
				Status:  StatusPending,
				Pending: pending,
				Roles:   []string{deps.DefaultRole},
			})
			if err != nil {
				// A concurrent request inserted the email after our lookup.
				// The next attempt sees that row and takes the pending or
				// duplicate branch above.
				if isEmailCollision(err, deps.Store) || retryable(err, deps.Store) {
					deps.MetricInc(deps.IssueConflict)
					continue
				}
				return "", err
			}
			deps.MetricInc(deps.Metrics.RegistrationStarted)
			deps.EmitAudit(ctx, deps.Events.RegistrationStarted, true, created.ID, email, nil, nil)
			deps.notify(ctx, "confirmation", created, deps.SendConfirmation, token)
			return created.Email, nil

		default:
			return "", err
		}
	}

	deps.Logger.Warn(ctx, "confirmation token not issued", "attempts", deps.IssueAttempts)
	return "", fmt.Errorf("%w: token issuance kept conflicting", deps.Errors.StoreUnavailable)
}

// RunConfirmRegistration consumes a confirmation token, sets the password and
// activates the account. It returns the account email.
func RunConfirmRegistration(ctx context.Context, token, password string, deps RegistrationDeps) (string, error) {
	deps.Observer.normalize()
	deps.Tokens.normalize()
	if !deps.ready() {
		return "", deps.Errors.EngineNotReady
	}

	fail := func(accountID, email string, err error, reason string) (string, error) {
		deps.MetricInc(deps.Metrics.RegistrationConfirmFailed)
		deps.EmitAudit(ctx, deps.Events.RegistrationConfirmed, false, accountID, email, err, func() map[string]string {
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
		return fail("", "", deps.Errors.InvalidLink, "malformed_token")
	}

	acct, err := deps.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, deps.Store.AccountNotFound) {
			return fail("", "", deps.Errors.InvalidLink, "unknown_token")
		}
		return "", err
	}
	if acct.Pending == nil || acct.Pending.Purpose != PurposeConfirmRegistration || acct.Status != StatusPending {
		return fail(acct.ID, acct.Email, deps.Errors.InvalidLink, "wrong_purpose")
	}
	if acct.Pending.Expired(deps.Now()) {
		return fail(acct.ID, acct.Email, deps.Errors.LinkExpired, "expired")
	}

	hash, err := deps.HashPassword(ctx, password)
	if err != nil {
		return "", err
	}
	active := StatusActive
	updated, err := deps.Update(ctx, acct.ID, acct.Version, AccountPatch{
		PasswordHash: &hash,
		Status:       &active,
		ClearPending: true,
	})
	if err != nil {
		// The slot changed under us, so the presented token is gone.
		if errors.Is(err, deps.Store.VersionConflict) || errors.Is(err, deps.Store.AccountNotFound) {
			return fail(acct.ID, acct.Email, deps.Errors.InvalidLink, "token_replaced")
		}
		return "", err
	}

	deps.MetricInc(deps.Metrics.RegistrationConfirmed)
	deps.EmitAudit(ctx, deps.Events.RegistrationConfirmed, true, updated.ID, updated.Email, nil, nil)
	return updated.Email, nil
}
