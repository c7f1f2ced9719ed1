package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	SessionID       string
	Account         AccountRecord
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginUnconfirmed int
	PasswordUpgraded int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady      error
	InvalidCredentials  error
	AccountNotConfirmed error
	PasswordNotSet      error
}

type LoginDeps struct {
	Observer
	Store StoreErrors

	FindByEmail func(context.Context, string) (AccountRecord, error)
	Update      func(context.Context, string, int64, AccountPatch) (AccountRecord, error)

	VerifyPassword func(ctx context.Context, password, hash string) (bool, error)
	// DummyVerify burns roughly one verification worth of time for an
	// unknown email.
	DummyVerify    func(ctx context.Context, password string)
	NeedsUpgrade   func(hash string) bool
	HashPassword   func(ctx context.Context, password string) (string, error)
	UpgradeOnLogin bool

	NewSessionID func() (string, error)
	IssueAccess  func(accountID string, role *string, sessionID string) (string, time.Time, error)
	IssueRefresh func(sessionID string) (string, time.Time, error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin checks the credential pair and issues a stateless session.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (LoginResult, error) {
	deps.normalize()
	if deps.FindByEmail == nil || deps.VerifyPassword == nil || deps.NewSessionID == nil ||
		deps.IssueAccess == nil || deps.IssueRefresh == nil {
		return LoginResult{}, deps.Errors.EngineNotReady
	}

	fail := func(accountID string, metric int, err error, reason string) (LoginResult, error) {
		deps.MetricInc(metric)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return LoginResult{}, err
	}

	acct, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, deps.Store.AccountNotFound) {
			return LoginResult{}, err
		}
		if deps.DummyVerify != nil {
			deps.DummyVerify(ctx, password)
		}
		return fail("", deps.Metrics.LoginFailure, deps.Errors.InvalidCredentials, "unknown_email")
	}

	if acct.Status != StatusActive {
		return fail(acct.ID, deps.Metrics.LoginUnconfirmed, deps.Errors.AccountNotConfirmed, "not_active")
	}
	if acct.PasswordHash == "" {
		return fail(acct.ID, deps.Metrics.LoginUnconfirmed, deps.Errors.PasswordNotSet, "password_not_set")
	}

	ok, err := deps.VerifyPassword(ctx, password, acct.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return fail(acct.ID, deps.Metrics.LoginFailure, deps.Errors.InvalidCredentials, "password_mismatch")
	}

	if deps.UpgradeOnLogin {
		acct = upgradeHash(ctx, acct, password, deps)
	}

	sid, err := deps.NewSessionID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("session id: %w", err)
	}
	access, exp, err := deps.IssueAccess(acct.ID, acct.PrimaryRole(), sid)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := deps.IssueRefresh(sid)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, acct.ID, acct.Email, nil, nil)

	return LoginResult{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: exp,
		SessionID:       sid,
		Account:         acct,
	}, nil
}

// upgradeHash re-hashes a verified password whose digest is outdated. Any
// failure leaves the old digest in place and only gets logged.
func upgradeHash(ctx context.Context, acct AccountRecord, password string, deps LoginDeps) AccountRecord {
	if deps.NeedsUpgrade == nil || deps.HashPassword == nil || deps.Update == nil {
		return acct
	}
	if !deps.NeedsUpgrade(acct.PasswordHash) {
		return acct
	}

	hash, err := deps.HashPassword(ctx, password)
	if err != nil {
		deps.Logger.Warn(ctx, "password upgrade skipped", "account_id", acct.ID, "error", err)
		return acct
	}
	updated, err := deps.Update(ctx, acct.ID, acct.Version, AccountPatch{PasswordHash: &hash})
	if err != nil {
		deps.Logger.Warn(ctx, "password upgrade not stored", "account_id", acct.ID, "error", err)
		return acct
	}

	deps.MetricInc(deps.Metrics.PasswordUpgraded)
	deps.Logger.Debug(ctx, "password hash upgraded", "account_id", acct.ID)
	return updated
}
