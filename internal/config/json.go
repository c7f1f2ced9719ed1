package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// fileConfig is the JSON form of Config. Absent fields keep their current
// value.
type fileConfig struct {
	HTTPAddr        *string   `json:"http_addr"`
	DatabaseDSN     *string   `json:"database_dsn"`
	Migrate         *bool     `json:"migrate"`
	RedisAddr       *string   `json:"redis_addr"`
	RedisPassword   *string   `json:"redis_password"`
	RedisDB         *int      `json:"redis_db"`
	MailPrefix      *string   `json:"mail_prefix"`
	JWTSecret       *string   `json:"jwt_secret"`
	AccessTTL       *Duration `json:"access_ttl"`
	RefreshTTL      *Duration `json:"refresh_ttl"`
	ConfirmationTTL *Duration `json:"confirmation_ttl"`
	ResetTTL        *Duration `json:"reset_ttl"`
	HashWorkers     *int      `json:"hash_workers"`
	FrontendURL     *string   `json:"frontend_url"`
	MailFrom        *string   `json:"mail_from"`
	MailHost        *string   `json:"mail_host"`
	MailPort        *int      `json:"mail_port"`
	MailUser        *string   `json:"mail_user"`
	MailPassword    *string   `json:"mail_password"`
	MailStartTLS    *bool     `json:"mail_starttls"`
	MailMaxAttempts *int      `json:"mail_max_attempts"`
	LogLevel        *string   `json:"log_level"`
	LogFormat       *string   `json:"log_format"`
	AuditLog        *bool     `json:"audit_log"`
	AdminEmail      *string   `json:"admin_email"`
	AdminPassword   *string   `json:"admin_password"`
}

// jsonConfigPath finds -c or -config in args without parsing other flags.
func jsonConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		for _, name := range []string{"-c", "--c", "-config", "--config"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(a, name+"="); ok {
				return v
			}
		}
	}
	return ""
}

func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setBool(&cfg.Migrate, fc.Migrate)
	setString(&cfg.RedisAddr, fc.RedisAddr)
	setString(&cfg.RedisPassword, fc.RedisPassword)
	setInt(&cfg.RedisDB, fc.RedisDB)
	setString(&cfg.MailPrefix, fc.MailPrefix)
	setString(&cfg.JWTSecret, fc.JWTSecret)
	setDuration(&cfg.AccessTTL, fc.AccessTTL)
	setDuration(&cfg.RefreshTTL, fc.RefreshTTL)
	setDuration(&cfg.ConfirmationTTL, fc.ConfirmationTTL)
	setDuration(&cfg.ResetTTL, fc.ResetTTL)
	setInt(&cfg.HashWorkers, fc.HashWorkers)
	setString(&cfg.FrontendURL, fc.FrontendURL)
	setString(&cfg.MailFrom, fc.MailFrom)
	setString(&cfg.MailHost, fc.MailHost)
	setInt(&cfg.MailPort, fc.MailPort)
	setString(&cfg.MailUser, fc.MailUser)
	setString(&cfg.MailPassword, fc.MailPassword)
	setBool(&cfg.MailStartTLS, fc.MailStartTLS)
	setInt(&cfg.MailMaxAttempts, fc.MailMaxAttempts)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setBool(&cfg.AuditLog, fc.AuditLog)
	setString(&cfg.AdminEmail, fc.AdminEmail)
	setString(&cfg.AdminPassword, fc.AdminPassword)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
