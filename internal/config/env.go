package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables. Unset or empty variables are
// ignored.
func parseEnv(cfg *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"HTTP_ADDR":      &cfg.HTTPAddr,
		"DATABASE_DSN":   &cfg.DatabaseDSN,
		"REDIS_ADDR":     &cfg.RedisAddr,
		"REDIS_PASSWORD": &cfg.RedisPassword,
		"MAIL_PREFIX":    &cfg.MailPrefix,
		"JWT_SECRET":     &cfg.JWTSecret,
		"FRONTEND_URL":   &cfg.FrontendURL,
		"MAIL_FROM":      &cfg.MailFrom,
		"MAIL_HOST":      &cfg.MailHost,
		"MAIL_USER":      &cfg.MailUser,
		"MAIL_PASSWORD":  &cfg.MailPassword,
		"LOG_LEVEL":      &cfg.LogLevel,
		"LOG_FORMAT":     &cfg.LogFormat,
		"ADMIN_EMAIL":    &cfg.AdminEmail,
		"ADMIN_PASSWORD": &cfg.AdminPassword,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_DB":          &cfg.RedisDB,
		"HASH_WORKERS":      &cfg.HashWorkers,
		"MAIL_PORT":         &cfg.MailPort,
		"MAIL_MAX_ATTEMPTS": &cfg.MailMaxAttempts,
	}
	for name, dst := range ints {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"MIGRATE":       &cfg.Migrate,
		"MAIL_STARTTLS": &cfg.MailStartTLS,
		"AUDIT_LOG":     &cfg.AuditLog,
	}
	for name, dst := range bools {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"JWT_ACCESS_EXPIRY":  &cfg.AccessTTL,
		"JWT_REFRESH_EXPIRY": &cfg.RefreshTTL,
		"CONFIRMATION_TTL":   &cfg.ConfirmationTTL,
		"RESET_TTL":          &cfg.ResetTTL,
	}
	for name, dst := range durations {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			*dst = d
		}
	}
	return nil
}
