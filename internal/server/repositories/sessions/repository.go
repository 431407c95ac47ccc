// Package sessions persists the per-user login slots of each site.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/server/models"
)

type Repository interface {
	// Upsert creates the session or, when its id already exists, moves its
	// valid-until to the given value.
	Upsert(ctx context.Context, session *models.Session) error
	// Get returns a session by id or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)
	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Session, error)
	// ListAlive returns the sessions of a site whose valid-until is after now.
	ListAlive(ctx context.Context, siteName string, now time.Time) ([]*models.Session, error)
	// UpdateValidUntil sets valid-until; common.ErrorNotFound when the row is gone.
	UpdateValidUntil(ctx context.Context, id string, validUntil time.Time) error
	// DeleteExpired removes sessions of a site with valid-until <= now and
	// returns how many rows it removed.
	DeleteExpired(ctx context.Context, siteName string, now time.Time) (int64, error)
	DeleteByUser(ctx context.Context, siteName, username string) error
	DeleteBySite(ctx context.Context, siteName string) error
}
