package httpapi

import (
	"context"
	"net"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/logging"
	"github.com/MrEthical07/goAccount/middleware"
)

// Service is the engine surface the handlers use. *goAccount.Engine
// implements it.
type Service interface {
	Login(ctx context.Context, email, password string) (goAccount.Session, error)
	StartRegistration(ctx context.Context, email string) (goAccount.Acknowledgement, error)
	ConfirmRegistration(ctx context.Context, token, password string) (goAccount.Acknowledgement, error)
	ForgotPassword(ctx context.Context, email string) (goAccount.Acknowledgement, error)
	ResetPassword(ctx context.Context, token, password string) (goAccount.Acknowledgement, error)

	CreateAccount(ctx context.Context, email, password string) (goAccount.AccountView, error)
	AddRole(ctx context.Context, accountID, roleValue string) (goAccount.AccountView, error)
	ListAccounts(ctx context.Context) ([]goAccount.AccountView, error)
	CreateRole(ctx context.Context, value, description string) (goAccount.Role, error)
	GetRoleByValue(ctx context.Context, value string) (goAccount.Role, error)

	ValidateAccess(ctx context.Context, token string) (*goAccount.AuthResult, error)
}

// HealthCheck is one dependency checked by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures an API.
type Options struct {
	Logger    logging.Logger
	Password  goAccount.PasswordConfig
	AdminRole string
	Health    []HealthCheck
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
}

// API holds the handlers.
type API struct {
	svc       Service
	logger    logging.Logger
	password  goAccount.PasswordConfig
	adminRole string
	health    []HealthCheck
	metrics   http.Handler
}

// New returns an API backed by svc. Zero option fields take the engine
// defaults.
func New(svc Service, opts Options) *API {
	defaults := goAccount.DefaultConfig()
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Password.MaxLength == 0 {
		opts.Password = defaults.Password
	}
	if opts.AdminRole == "" {
		opts.AdminRole = defaults.Accounts.AdminRole
	}
	return &API{
		svc:       svc,
		logger:    opts.Logger.With("component", "httpapi"),
		password:  opts.Password,
		adminRole: opts.AdminRole,
		health:    opts.Health,
		metrics:   opts.Metrics,
	}
}

// Handler returns the routed handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", a.login)
	mux.HandleFunc("POST /auth/register", a.register)
	mux.HandleFunc("POST /auth/confirm", a.confirm)
	mux.HandleFunc("POST /auth/forgot-password", a.forgotPassword)
	mux.HandleFunc("POST /auth/reset-password", a.resetPassword)
	mux.Handle("GET /auth/me", middleware.Guard(a.svc)(http.HandlerFunc(a.me)))

	admin := middleware.RequireAdmin(a.svc, a.adminRole)
	mux.Handle("POST /users", admin(http.HandlerFunc(a.createAccount)))
	mux.Handle("GET /users", admin(http.HandlerFunc(a.listAccounts)))
	mux.Handle("POST /users/{id}/roles", admin(http.HandlerFunc(a.addRole)))
	mux.Handle("POST /roles", admin(http.HandlerFunc(a.createRole)))
	mux.Handle("GET /roles/{value}", admin(http.HandlerFunc(a.getRole)))

	mux.HandleFunc("GET /healthz", a.healthz)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics)
	}

	return withRequestContext(mux)
}

// withRequestContext attaches the client IP and User-Agent for audit events.
func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ctx := goAccount.WithClientIP(r.Context(), host)
		ctx = goAccount.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
