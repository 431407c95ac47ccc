package users

import (
	"context"

	"github.com/dmitrijs2005/auctionhost/internal/server/models"
)

type Repository interface {
	// Create inserts a user. A taken (site, username) yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	// Get returns the user or common.ErrorNotFound.
	Get(ctx context.Context, siteName, username string) (*models.User, error)
	// ListBySite returns every user of a site ordered by username.
	ListBySite(ctx context.Context, siteName string) ([]*models.User, error)
	// Delete removes a user; common.ErrorNotFound when absent.
	Delete(ctx context.Context, siteName, username string) error
	DeleteBySite(ctx context.Context, siteName string) error
}
