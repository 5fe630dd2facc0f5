package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL       string // SQLite path for local storage
	RemoteDatabaseURL string // Postgres DSN; empty disables the remote backend
	UserID            string // stable identity for the remote backend
	TelegramToken     string // empty disables the bot
	ScanInterval      time.Duration
	DigestTime        string // HH:MM
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RemoteDatabaseURL: strings.TrimSpace(os.Getenv("REMOTE_DATABASE_URL")),
		UserID:            strings.TrimSpace(os.Getenv("USER_ID")),
		TelegramToken:     strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		ScanInterval:      parseSeconds(strings.TrimSpace(os.Getenv("RECURRING_SCAN_INTERVAL_SECONDS"))),
		DigestTime:        strings.TrimSpace(os.Getenv("DIGEST_TIME")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "todoflow.db"
	}
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = time.Minute
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "09:00"
	}

	return cfg, nil
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
