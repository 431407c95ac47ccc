package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (site_name, username, password_hash)
		 VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, user.SiteName, user.Username, user.PasswordHash)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, siteName, username string) (*models.User, error) {
	query :=
		`SELECT site_name, username, password_hash FROM users
		 WHERE site_name = $1 AND username = $2`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, siteName, username).
		Scan(&user.SiteName, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) ListBySite(ctx context.Context, siteName string) ([]*models.User, error) {
	query :=
		`SELECT site_name, username, password_hash FROM users
		 WHERE site_name = $1
		 ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query, siteName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.SiteName, &user.Username, &user.PasswordHash); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, siteName, username string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE site_name = $1 AND username = $2`, siteName, username)
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

func (r *PostgresRepository) DeleteBySite(ctx context.Context, siteName string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE site_name = $1`, siteName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
