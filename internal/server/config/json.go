package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/auctionhost/internal/flagx"
	"github.com/dmitrijs2005/auctionhost/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration,
// so "5m" and integer nanoseconds are both accepted.
type JsonConfig struct {
	DatabaseDSN       string         `json:"database_dsn"`
	SweepInterval     timex.Duration `json:"sweep_interval"`
	NatsURL           string         `json:"nats_url"`
	NatsSubjectPrefix string         `json:"nats_subject_prefix"`
	LogLevel          string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config (or $AUCTIONHOST_CONFIG)
// onto config. Keys absent from the file keep their current value.
func parseJson(config *Config) error {
	path := flagx.ConfigFile()

	// nothing to load
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SweepInterval.Duration > 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.NatsURL != "" {
		config.NatsURL = c.NatsURL
	}
	if c.NatsSubjectPrefix != "" {
		config.NatsSubjectPrefix = c.NatsSubjectPrefix
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	return nil
}
