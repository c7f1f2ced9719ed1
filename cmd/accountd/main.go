// Command accountd serves the goAccount HTTP API.
//
// It reads its settings from defaults, an optional JSON file (-c), the
// environment and flags, in that order. It needs Postgres for accounts and
// roles, Redis for the mail outbox, and an SMTP relay for delivery.
//
// Run:
//
//	JWT_SECRET=change-me-0123456789 go run ./cmd/accountd -d "$DATABASE_DSN"
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/config"
	"github.com/MrEthical07/goAccount/logging"
	promexport "github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/MrEthical07/goAccount/store/postgres"
	"github.com/MrEthical07/goAccount/transport/httpapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "accountd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stdout, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- postgres ----------
	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info(ctx, "migrations applied")
	}
	store := postgres.New(db)

	// ---------- redis outbox ----------
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	outbox := notify.NewOutbox(rdb, notify.KeysWithPrefix(cfg.MailPrefix))
	if _, err := outbox.Ping(ctx); err != nil {
		return err
	}

	renderer, err := notify.NewRenderer(notify.RendererConfig{
		FrontendURL:     cfg.FrontendURL,
		From:            cfg.MailFrom,
		ConfirmationTTL: cfg.ConfirmationTTL,
		ResetTTL:        cfg.ResetTTL,
	})
	if err != nil {
		return err
	}
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUser,
		Password: cfg.MailPassword,
		StartTLS: cfg.MailStartTLS,
	})
	worker := notify.NewWorker(rdb, renderer, sender, notify.WorkerConfig{
		Keys:        notify.KeysWithPrefix(cfg.MailPrefix),
		MaxAttempts: cfg.MailMaxAttempts,
		Logger:      logger,
	})

	// ---------- engine ----------
	engineCfg := cfg.Engine()
	builder := goAccount.New().
		WithConfig(engineCfg).
		WithAccountStore(store).
		WithNotifier(outbox).
		WithLogger(logger)
	if cfg.AuditLog {
		builder = builder.WithAuditSink(goAccount.NewLoggerSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	if err := bootstrapAdmin(ctx, engine, cfg, logger); err != nil {
		return err
	}

	// ---------- metrics ----------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if _, err := promexport.Register(reg, engine); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// ---------- http ----------
	api := httpapi.New(engine, httpapi.Options{
		Logger:    logger,
		Password:  engineCfg.Password,
		AdminRole: engineCfg.Accounts.AdminRole,
		Metrics:   promexport.Handler(reg),
		Health: []httpapi.HealthCheck{
			{Name: "postgres", Check: store.Ping},
			{Name: "redis", Check: func(ctx context.Context) error {
				_, err := outbox.Ping(ctx)
				return err
			}},
			{Name: "smtp", Check: sender.Verify},
		},
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info(gctx, "listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	stats := worker.Stats()
	logger.Info(context.Background(), "stopped",
		"mail_sent", stats.Sent, "mail_retried", stats.Retried, "mail_dead", stats.DeadLettered)
	return err
}

func newLogger(w io.Writer, cfg *config.Config) logging.Logger {
	if cfg.LogFormat == "text" {
		return logging.NewText(w, cfg.LogLevel).With("service", "accountd")
	}
	return logging.NewJSON(w, cfg.LogLevel).With("service", "accountd")
}

// bootstrapAdmin creates the configured ADMIN account once. An existing
// account with that email is left alone.
func bootstrapAdmin(ctx context.Context, engine *goAccount.Engine, cfg *config.Config, logger logging.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	_, err := engine.CreateAccount(ctx, cfg.AdminEmail, cfg.AdminPassword)
	switch {
	case err == nil:
		logger.Info(ctx, "admin account created", "email", logging.RedactEmail(cfg.AdminEmail))
		return nil
	case errors.Is(err, goAccount.ErrEmailAlreadyRegistered):
		return nil
	default:
		return fmt.Errorf("bootstrap admin: %w", err)
	}
}
