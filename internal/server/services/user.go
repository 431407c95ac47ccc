package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
)

// User is the handle of an account at a site.
type User struct {
	site     *Site
	username string
}

func (u *User) Username() string { return u.username }

func (u *User) Site() *Site { return u.site }

// Equal compares users by site and username.
func (u *User) Equal(other *User) bool {
	return other != nil && u.username == other.username && u.site.name == other.site.name
}

// WonAuctions lists the ended auctions this user won.
func (u *User) WonAuctions(ctx context.Context) ([]*Auction, error) {
	var rows []*models.Auction
	err := u.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := u.site.requireSite(ctx, repos); err != nil {
			return err
		}
		if err := requireUser(ctx, repos, u.site.name, u.username); err != nil {
			return err
		}
		var err error
		rows, err = repos.Auctions().ListWonBy(ctx, u.site.name, u.username, u.site.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]*Auction, 0, len(rows))
	for _, r := range rows {
		result = append(result, u.site.auction(r))
	}
	return result, nil
}

// Delete removes the account. It fails while the user sells or leads an
// auction that has not ended; otherwise winner references on ended auctions
// are cleared and the user's own ended auctions and session go with it.
func (u *User) Delete(ctx context.Context) error {
	err := u.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := u.site.requireSite(ctx, repos); err != nil {
			return err
		}
		if err := requireUser(ctx, repos, u.site.name, u.username); err != nil {
			return err
		}

		now := u.site.Now()
		auctions := repos.Auctions()
		selling, err := auctions.ExistsOpenBySeller(ctx, u.site.name, u.username, now)
		if err != nil {
			return err
		}
		if selling {
			return fmt.Errorf("%w: user %q sells an open auction", common.ErrInvalidOperation, u.username)
		}
		winning, err := auctions.ExistsOpenByWinner(ctx, u.site.name, u.username, now)
		if err != nil {
			return err
		}
		if winning {
			return fmt.Errorf("%w: user %q leads an open auction", common.ErrInvalidOperation, u.username)
		}

		if err := auctions.ClearWinner(ctx, u.site.name, u.username); err != nil {
			return err
		}
		if err := auctions.DeleteBySeller(ctx, u.site.name, u.username); err != nil {
			return err
		}
		if err := repos.Sessions().DeleteByUser(ctx, u.site.name, u.username); err != nil {
			return err
		}
		err = repos.Users().Delete(ctx, u.site.name, u.username)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: user %q no longer exists", common.ErrInvalidOperation, u.username)
		}
		return err
	})
	if err != nil {
		return err
	}
	u.site.log.Info(ctx, "user deleted", "username", u.username)
	return nil
}
