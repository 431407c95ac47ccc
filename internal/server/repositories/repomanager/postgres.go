package repomanager

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/auctionhost/internal/dbx"
	"github.com/dmitrijs2005/auctionhost/internal/server/migrations"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/auctions"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/sites"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to a
// transaction and owns the schema migrations (via goose).
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (*PostgresRepositoryManager, error) {
	if db == nil {
		return nil, errors.New("nil database handle")
	}
	return &PostgresRepositoryManager{db: db}, nil
}

// Open connects through the pgx stdlib driver.
func Open(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresRepositoryManager(db)
}

type postgresRepositories struct {
	tx dbx.DBTX
}

func (r postgresRepositories) Sites() sites.Repository {
	return sites.NewPostgresRepository(r.tx)
}

func (r postgresRepositories) Users() users.Repository {
	return users.NewPostgresRepository(r.tx)
}

func (r postgresRepositories) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(r.tx)
}

func (r postgresRepositories) Auctions() auctions.Repository {
	return auctions.NewPostgresRepository(r.tx)
}

// WithTx runs fn inside a database transaction. Row locks taken through the
// GetForUpdate methods are released on commit or rollback.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepositories{tx: tx})
	})
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseResetContext is a seam for testing goose.ResetContext.
var gooseResetContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.ResetContext(ctx, db, dir, opts...)
}

func (m *PostgresRepositoryManager) setupGoose() error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.SetDialect("pgx")
}

// RunMigrations sets up goose with the embedded migrations and applies any
// pending ones.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.setupGoose(); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

// ResetSchema rolls every migration back and applies them again, leaving an
// empty schema.
func (m *PostgresRepositoryManager) ResetSchema(ctx context.Context) error {
	if err := m.setupGoose(); err != nil {
		return err
	}
	if err := gooseResetContext(ctx, m.db, "."); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}
