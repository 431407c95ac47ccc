// Package auctions persists auctions and the bid state carried on them.
package auctions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/server/models"
)

// Repository persists auctions. An auction is open while ends_on >= now.
type Repository interface {
	// Create inserts the auction and fills in its generated ID.
	Create(ctx context.Context, auction *models.Auction) error
	// Get returns the auction or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.Auction, error)
	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Auction, error)
	// ListBySite returns the auctions of a site ordered by id; with onlyOpen
	// the ended ones are left out.
	ListBySite(ctx context.Context, siteName string, onlyOpen bool, now time.Time) ([]*models.Auction, error)
	// ListWonBy returns ended auctions whose winner is username. A winner
	// recorded with a zero maximum offer does not count.
	ListWonBy(ctx context.Context, siteName, username string, now time.Time) ([]*models.Auction, error)
	// Update stores current price, maximum offer and winner.
	Update(ctx context.Context, auction *models.Auction) error
	// Delete removes one auction; common.ErrorNotFound when absent.
	Delete(ctx context.Context, id int64) error

	ExistsOpenBySeller(ctx context.Context, siteName, username string, now time.Time) (bool, error)
	ExistsOpenByWinner(ctx context.Context, siteName, username string, now time.Time) (bool, error)
	// DeleteBySeller removes every auction sold by username.
	DeleteBySeller(ctx context.Context, siteName, username string) error
	// ClearWinner nulls the winner column wherever it is username.
	ClearWinner(ctx context.Context, siteName, username string) error
	DeleteBySite(ctx context.Context, siteName string) error
}
