package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/dbx"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `SELECT id, site_name, username, timezone, valid_until FROM sessions`

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, site_name, username, timezone, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET valid_until = EXCLUDED.valid_until
	`
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.SiteName, s.Username, s.Timezone, s.ValidUntil.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Session, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Session, error) {
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.SiteName, &s.Username, &s.Timezone, &s.ValidUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListAlive(ctx context.Context, siteName string, now time.Time) ([]*models.Session, error) {
	query := selectColumns + `
		WHERE site_name = $1 AND valid_until > $2
		ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query, siteName, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Session, 0)
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(&s.ID, &s.SiteName, &s.Username, &s.Timezone, &s.ValidUntil); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateValidUntil(ctx context.Context, id string, validUntil time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET valid_until = $1 WHERE id = $2`, validUntil.UTC(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, siteName string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE site_name = $1 AND valid_until <= $2`, siteName, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, siteName, username string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE site_name = $1 AND username = $2`, siteName, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteBySite(ctx context.Context, siteName string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE site_name = $1`, siteName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
