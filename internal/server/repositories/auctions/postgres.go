package auctions

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `SELECT id, site_name, description, ends_on, seller, current_price, maximum_offer, winner FROM auctions`

type scanner interface {
	Scan(dest ...any) error
}

func scanAuction(row scanner) (*models.Auction, error) {
	a := &models.Auction{}
	var winner sql.NullString
	if err := row.Scan(&a.ID, &a.SiteName, &a.Description, &a.EndsOn, &a.Seller,
		&a.CurrentPrice, &a.MaximumOffer, &winner); err != nil {
		return nil, err
	}
	if winner.Valid {
		w := winner.String
		a.Winner = &w
	}
	return a, nil
}

func nullableWinner(w *string) sql.NullString {
	if w == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *w, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Auction) error {
	query :=
		`INSERT INTO auctions (site_name, description, ends_on, seller, current_price, maximum_offer, winner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		a.SiteName, a.Description, a.EndsOn.UTC(), a.Seller,
		a.CurrentPrice, a.MaximumOffer, nullableWinner(a.Winner)).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Auction, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, id int64) (*models.Auction, error) {
	a, err := scanAuction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Auction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Auction, 0)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListBySite(ctx context.Context, siteName string, onlyOpen bool, now time.Time) ([]*models.Auction, error) {
	if onlyOpen {
		return r.list(ctx, selectColumns+`
			WHERE site_name = $1 AND ends_on >= $2
			ORDER BY id`, siteName, now.UTC())
	}
	return r.list(ctx, selectColumns+`
		WHERE site_name = $1
		ORDER BY id`, siteName)
}

func (r *PostgresRepository) ListWonBy(ctx context.Context, siteName, username string, now time.Time) ([]*models.Auction, error) {
	return r.list(ctx, selectColumns+`
		WHERE site_name = $1 AND winner = $2 AND maximum_offer > 0 AND ends_on < $3
		ORDER BY id`, siteName, username, now.UTC())
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Auction) error {
	query :=
		`UPDATE auctions SET current_price = $1, maximum_offer = $2, winner = $3
		 WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, a.CurrentPrice, a.MaximumOffer, nullableWinner(a.Winner), a.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) ExistsOpenBySeller(ctx context.Context, siteName, username string, now time.Time) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM auctions WHERE site_name = $1 AND seller = $2 AND ends_on >= $3)`,
		siteName, username, now.UTC())
}

func (r *PostgresRepository) ExistsOpenByWinner(ctx context.Context, siteName, username string, now time.Time) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM auctions WHERE site_name = $1 AND winner = $2 AND maximum_offer > 0 AND ends_on >= $3)`,
		siteName, username, now.UTC())
}

func (r *PostgresRepository) DeleteBySeller(ctx context.Context, siteName, username string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM auctions WHERE site_name = $1 AND seller = $2`, siteName, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearWinner(ctx context.Context, siteName, username string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET winner = NULL WHERE site_name = $1 AND winner = $2`, siteName, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteBySite(ctx context.Context, siteName string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auctions WHERE site_name = $1`, siteName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
