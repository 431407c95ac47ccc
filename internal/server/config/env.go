package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvDatabaseDSN       = "AUCTIONHOST_DATABASE_DSN"
	EnvSweepInterval     = "AUCTIONHOST_SWEEP_INTERVAL"
	EnvNatsURL           = "AUCTIONHOST_NATS_URL"
	EnvNatsSubjectPrefix = "AUCTIONHOST_NATS_SUBJECT_PREFIX"
	EnvLogLevel          = "AUCTIONHOST_LOG_LEVEL"
)

// dotenvFile is loaded into the process environment if it exists.
// Variables already set are left alone.
var dotenvFile = ".env"

func loadDotenv() error {
	if _, err := os.Stat(dotenvFile); err != nil {
		return nil
	}
	if err := godotenv.Load(dotenvFile); err != nil {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}
	return nil
}

// parseEnv overlays non-empty AUCTIONHOST_* variables. The sweep interval
// uses time.ParseDuration syntax ("90s", "5m").
func parseEnv(config *Config) error {
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv(EnvSweepInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSweepInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", EnvSweepInterval, v)
		}
		config.SweepInterval = d
	}
	if v := os.Getenv(EnvNatsURL); v != "" {
		config.NatsURL = v
	}
	if v := os.Getenv(EnvNatsSubjectPrefix); v != "" {
		config.NatsSubjectPrefix = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	return nil
}
