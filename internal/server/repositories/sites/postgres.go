package sites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/dbx"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, site *models.Site) error {
	query :=
		`INSERT INTO sites (name, timezone, session_expiration_in_seconds, minimum_bid_increment)
		 VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		site.Name, site.Timezone, site.SessionExpirationInSeconds, site.MinimumBidIncrement)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.Site, error) {
	query :=
		`SELECT name, timezone, session_expiration_in_seconds, minimum_bid_increment FROM sites
		 WHERE name = $1`

	site := &models.Site{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&site.Name, &site.Timezone, &site.SessionExpirationInSeconds, &site.MinimumBidIncrement)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return site, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.SiteInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, timezone FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	infos := make([]models.SiteInfo, 0)
	for rows.Next() {
		var info models.SiteInfo
		if err := rows.Scan(&info.Name, &info.Timezone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return infos, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE name = $1`, name)
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
