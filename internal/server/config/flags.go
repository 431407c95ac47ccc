package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-i int      session sweep interval, seconds
//	-n string   NATS URL
//	-p string   NATS subject prefix
//	-l string   log level
//
// os.Args is first filtered with flagx.FilterArgs so that flags owned by
// other components (such as -c) do not break parsing.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-i", "-n", "-p", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	sweepSeconds := fs.Int("i", int(config.SweepInterval/time.Second), "session sweep interval (in seconds)")
	fs.StringVar(&config.NatsURL, "n", config.NatsURL, "NATS URL, empty to disable events")
	fs.StringVar(&config.NatsSubjectPrefix, "p", config.NatsSubjectPrefix, "NATS subject prefix")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	var sweepErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "i" {
			return
		}
		if *sweepSeconds <= 0 {
			sweepErr = fmt.Errorf("sweep interval must be positive, got %d", *sweepSeconds)
			return
		}
		config.SweepInterval = time.Duration(*sweepSeconds) * time.Second
	})
	return sweepErr
}
