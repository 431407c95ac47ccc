package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/auctionhost/internal/clock"
	"github.com/dmitrijs2005/auctionhost/internal/console"
	"github.com/dmitrijs2005/auctionhost/internal/logging"
	"github.com/dmitrijs2005/auctionhost/internal/server/config"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/auctionhost/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	manager, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer manager.Close()

	if err := manager.RunMigrations(ctx); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	host, err := services.LoadHost(ctx, manager, clock.SystemFactory{},
		services.WithLogger(logging.NewJSONLogger(os.Stderr, cfg.LogLevel)),
		services.WithSweepInterval(cfg.SweepInterval),
	)
	if err != nil {
		log.Fatalf("%v", err)
	}

	console.NewApp(manager, host, os.Stdin, os.Stdout).Run(ctx)

}
