// Package server runs the auction host as a long-lived process: it opens the
// store, applies migrations, loads every site so that their session sweeps
// run, and shuts down cleanly on SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/auctionhost/internal/clock"
	"github.com/dmitrijs2005/auctionhost/internal/logging"
	"github.com/dmitrijs2005/auctionhost/internal/server/config"
	"github.com/dmitrijs2005/auctionhost/internal/server/events"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/auctionhost/internal/server/services"
)

// Seams for tests.
var (
	openManager = func(dsn string) (repomanager.RepositoryManager, error) {
		return repomanager.Open(dsn)
	}
	openPublisher = func(url, prefix string) (events.Publisher, error) {
		return events.NewNatsPublisher(url, prefix)
	}
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	manager   repomanager.RepositoryManager
	publisher events.Publisher
	clocks    clock.Factory
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	manager, err := openManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if c.NatsURL != "" {
		publisher, err = openPublisher(c.NatsURL, c.NatsSubjectPrefix)
		if err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("events init error: %w", err)
		}
	}

	return &App{
		config:    c,
		logger:    logger,
		manager:   manager,
		publisher: publisher,
		clocks:    clock.SystemFactory{},
	}, nil
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.shutdown(context.Background())

	app.logger.Info(ctx, "Starting app...")

	if err := app.manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	host, err := services.LoadHost(ctx, app.manager, app.clocks,
		services.WithLogger(app.logger),
		services.WithPublisher(app.publisher),
		services.WithSweepInterval(app.config.SweepInterval),
	)
	if err != nil {
		return err
	}
	defer host.Close()

	infos, err := host.GetSiteInfos(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := host.LoadSite(ctx, info.Name); err != nil {
			app.logger.Error(ctx, "site not loaded", "site", info.Name, "error", err)
		}
	}
	app.logger.Info(ctx, "host ready", "sites", len(infos))

	<-ctx.Done()
	app.logger.Info(ctx, "Shutting down...")
	return nil
}

func (app *App) shutdown(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(ctx, "events close", "error", err)
	}
	if err := app.manager.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
}
