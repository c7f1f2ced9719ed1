package goAccount

import (
	"context"
	"strings"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/logging"
	"github.com/MrEthical07/goAccount/password"
)

// Engine runs the account lifecycle. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	config     Config
	accounts   AccountStore
	roles      RoleStore
	notifier   Notifier
	logger     logging.Logger
	audit      *auditDispatcher
	metrics    *Metrics
	hasher     *password.Pool
	dummyHash  string
	jwtManager *jwt.Manager
	now        func() time.Time
}

// Close stops the hashing pool and flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.hasher != nil {
		e.hasher.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped is the number of audit events lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login exchanges an email and password for a signed session. Nothing is
// persisted for the session itself.
func (e *Engine) Login(ctx context.Context, email, password string) (Session, error) {
	if e == nil {
		return Session{}, ErrEngineNotReady
	}
	res, err := internalflows.RunLogin(ctx, normalizeEmail(email), password, e.loginFlowDeps())
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:     res.AccessToken,
		RefreshToken:    res.RefreshToken,
		AccessExpiresAt: res.AccessExpiresAt,
		Account:         recordView(res.Account),
	}, nil
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	deps := internalflows.LoginDeps{
		Observer:       e.observer(),
		Store:          storeErrors(),
		UpgradeOnLogin: e.config.Password.UpgradeOnLogin,
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginUnconfirmed: int(MetricLoginUnconfirmed),
			PasswordUpgraded: int(MetricPasswordUpgraded),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:      ErrEngineNotReady,
			InvalidCredentials:  ErrInvalidCredentials,
			AccountNotConfirmed: ErrAccountNotConfirmed,
			PasswordNotSet:      ErrPasswordNotSet,
		},
	}

	if e.accounts != nil {
		deps.FindByEmail = e.findByEmail
		deps.Update = e.updateAccount
	}
	if e.hasher != nil {
		deps.VerifyPassword = e.verifyPassword
		deps.DummyVerify = e.dummyVerify
		deps.NeedsUpgrade = e.needsUpgrade
		deps.HashPassword = e.hashPassword
	}
	if e.jwtManager != nil {
		deps.NewSessionID = newSessionID
		deps.IssueAccess = e.jwtManager.IssueAccess
		deps.IssueRefresh = e.jwtManager.IssueRefresh
	}
	return deps
}

func (e *Engine) observer() internalflows.Observer {
	return internalflows.Observer{
		Logger:              e.logger,
		MetricInc:           func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:           e.emitAudit,
		NotificationFailure: int(MetricNotificationFailure),
		NotificationFailed:  auditEventNotificationFailed,
	}
}

// normalizeEmail only trims surrounding whitespace. Emails are stored and
// compared case-sensitively.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
