package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/spf13/pflag"
)

const (
	DEV_ENV = "dev"
	PRO_ENV = "pro"
)

type Config struct {
	Env           string
	Addr          string
	JWTSecret     string
	DBPath        string
	EnableSignup  bool
	WhitelistHost string
	CertCacheDir  string
	LogLevel      log.Lvl
	Seed          string
	MigrateOnly   bool
}

// loadConfig reads the environment and then the command line; flags win.
func loadConfig(args []string, getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:           getenv("ENV"),
		Addr:          getenv("ADDRESS_LISTEN"),
		JWTSecret:     getenv("JWT_SECRET"),
		DBPath:        getenv("DB_URL"),
		EnableSignup:  getenv("ENABLE_SIGNUP") == "true",
		WhitelistHost: getenv("WHITELIST_HOST"),
		CertCacheDir:  getenv("CERT_CACHE_DIR"),
	}
	if cfg.Env == "" {
		cfg.Env = PRO_ENV
	}
	if cfg.Env != DEV_ENV && cfg.Env != PRO_ENV {
		return Config{}, fmt.Errorf("unknown ENV %q, want %s or %s", cfg.Env, DEV_ENV, PRO_ENV)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./fandango.db"
	}
	if cfg.CertCacheDir == "" {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		cfg.CertCacheDir = "/var/www/.cache"
	}

	level, err := parseLogLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	flagSet := pflag.NewFlagSet("fandango", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address; empty in pro means autocert TLS on :443")
	flagSet.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flagSet.StringVar(&cfg.Seed, "seed", "", "YAML fixture file loaded after migrations")
	flagSet.BoolVar(&cfg.MigrateOnly, "migrate-only", false, "apply migrations (and --seed) then exit")
	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Env == DEV_ENV && cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.JWTSecret == "" && cfg.Env == DEV_ENV {
		cfg.JWTSecret = "unsecure"
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("no secret defined")
	}

	return cfg, nil
}

func parseLogLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("unknown LOG_LEVEL %q", s)
}
