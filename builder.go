package goAccount

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/logging"
	"github.com/MrEthical07/goAccount/password"
)

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config Config

	accounts  AccountStore
	roles     RoleStore
	notifier  Notifier
	logger    logging.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountStore sets the required account store.
func (b *Builder) WithAccountStore(s AccountStore) *Builder {
	b.accounts = s
	return b
}

// WithRoleStore sets the role catalogue used by CreateRole and GetRoleByValue.
// When omitted, the account store is used if it also implements RoleStore.
func (b *Builder) WithRoleStore(s RoleStore) *Builder {
	b.roles = s
	return b
}

// WithNotifier sets the required notifier.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the structured logger. Defaults to logging.Nop.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides time.Now for token expiry and issued-at stamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	roles := b.roles
	if roles == nil {
		if rs, ok := b.accounts.(RoleStore); ok {
			roles = rs
		}
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:   cfg,
		accounts: b.accounts,
		roles:    roles,
		notifier: b.notifier,
		logger:   logger.With("component", "goaccount"),
		now:      now,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// -------- PASSWORD HASHING --------
	argon, err := password.NewArgon2(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}
	engine.hasher = password.NewPool(password.NewMigrating(argon), cfg.Hashing.Workers, func(d time.Duration) {
		engine.metrics.Observe(MetricHashLatency, d)
	})
	// A digest of the configured cost, verified against when the email is unknown.
	engine.dummyHash, err = argon.Hash("goaccount-timing-equalizer")
	if err != nil {
		return nil, err
	}

	// -------- TOKEN SIGNER --------
	jm, err := jwt.NewManager(cfg.jwtConfig())
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm.WithClock(now)

	b.built = true
	engine.logger.Info(context.Background(), "engine built",
		"hash_workers", engine.hasher.Size(),
		"audit", cfg.Audit.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)

	return engine, nil
}
