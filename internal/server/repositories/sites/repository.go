// Package sites declares the repository contract for site records.
package sites

import (
	"context"

	"github.com/dmitrijs2005/auctionhost/internal/server/models"
)

// Repository persists sites.
type Repository interface {
	// Create inserts a site. A duplicate name yields common.ErrorAlreadyExists.
	Create(ctx context.Context, site *models.Site) error
	// Get returns the site or common.ErrorNotFound.
	Get(ctx context.Context, name string) (*models.Site, error)
	// List returns the (name, timezone) of every site, ordered by name.
	List(ctx context.Context) ([]models.SiteInfo, error)
	// Delete removes the site row only; owned rows must be removed first.
	// A missing site yields common.ErrorNotFound.
	Delete(ctx context.Context, name string) error
}
