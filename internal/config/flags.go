package config

import (
	"flag"
	"io"
)

// parseFlags overlays command-line flags.
//
//	-c string    JSON config file (read earlier, accepted here)
//	-a string    HTTP listen address
//	-d string    PostgreSQL DSN
//	-r string    Redis address
//	-s string    JWT signing secret
//	-f string    frontend base URL used in mailed links
//	-l string    log level
//	-migrate     apply schema migrations at startup
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("accountd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath string
	fs.StringVar(&configPath, "c", "", "JSON config file")
	fs.StringVar(&configPath, "config", "", "JSON config file")
	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT signing secret")
	fs.StringVar(&cfg.FrontendURL, "f", cfg.FrontendURL, "frontend base URL")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply schema migrations")
	fs.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTTL, "refresh-ttl", cfg.RefreshTTL, "refresh token lifetime")

	return fs.Parse(args)
}
