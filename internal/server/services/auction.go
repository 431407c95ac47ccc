package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/events"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// Auction is the handle of one auction. Only the immutable attributes are
// held; price and winner are read on demand.
type Auction struct {
	site        *Site
	id          int64
	seller      string
	description string
	endsOn      time.Time
}

func (a *Auction) ID() int64 { return a.id }

func (a *Auction) Seller() *User { return a.site.user(a.seller) }

func (a *Auction) Description() string { return a.description }

func (a *Auction) EndsOn() time.Time { return a.endsOn }

// Equal compares auctions by id.
func (a *Auction) Equal(other *Auction) bool {
	return other != nil && a.id == other.id
}

func (a *Auction) load(ctx context.Context, repos repomanager.Repositories) (*models.Auction, error) {
	if err := a.site.requireSite(ctx, repos); err != nil {
		return nil, err
	}
	row, err := repos.Auctions().Get(ctx, a.id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, a.gone()
	}
	return row, err
}

func (a *Auction) gone() error {
	return fmt.Errorf("%w: auction %d no longer exists", common.ErrInvalidOperation, a.id)
}

// CurrentPrice is the visible price.
func (a *Auction) CurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := a.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		row, err := a.load(ctx, repos)
		if err != nil {
			return err
		}
		price = row.CurrentPrice
		return nil
	})
	return price, err
}

// CurrentWinner returns the holder of the highest offer, or nil when there
// is none.
func (a *Auction) CurrentWinner(ctx context.Context) (*User, error) {
	var winner *User
	err := a.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		row, err := a.load(ctx, repos)
		if err != nil {
			return err
		}
		if !row.HasBids() || row.Winner == nil {
			return nil
		}
		if _, err := repos.Users().Get(ctx, a.site.name, *row.Winner); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: auction %d is won by unknown user %q",
					common.ErrInvalidOperation, a.id, *row.Winner)
			}
			return err
		}
		winner = a.site.user(*row.Winner)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return winner, nil
}

// Delete removes the auction whether or not it has ended.
func (a *Auction) Delete(ctx context.Context) error {
	err := a.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := a.site.requireSite(ctx, repos); err != nil {
			return err
		}
		if err := repos.Auctions().Delete(ctx, a.id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return a.gone()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.site.log.Info(ctx, "auction deleted", "auction_id", a.id)
	return nil
}

// Bid submits offer on behalf of the session's user and reports whether it
// became the winning offer. Any evaluated bid renews the session.
func (a *Auction) Bid(ctx context.Context, session *Session, offer decimal.Decimal) (bool, error) {
	if session == nil {
		return false, fmt.Errorf("%w: session", common.ErrArgumentNull)
	}
	if offer.IsNegative() {
		return false, fmt.Errorf("%w: offer %s", common.ErrArgumentOutOfRange, offer)
	}
	sameSite := session.site.name == a.site.name
	if sameSite && session.username == a.seller {
		return false, fmt.Errorf("%w: seller cannot bid on own auction", common.ErrArgumentInvalid)
	}

	now := a.site.Now()
	var outcome bidOutcome
	err := a.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		// Lock order: auction row, then session row.
		row, auctionErr := repos.Auctions().GetForUpdate(ctx, a.id)
		if auctionErr != nil && !errors.Is(auctionErr, common.ErrorNotFound) {
			return auctionErr
		}

		sess, err := repos.Sessions().GetForUpdate(ctx, session.id)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: session no longer exists", common.ErrInvalidOperation)
		}
		if err != nil {
			return err
		}
		if !sess.AliveAt(now) {
			return fmt.Errorf("%w: session expired", common.ErrArgumentInvalid)
		}

		if err := a.site.requireSite(ctx, repos); err != nil {
			return err
		}
		if auctionErr != nil {
			return a.gone()
		}
		if row.EndedAt(now) {
			return fmt.Errorf("%w: auction %d ended", common.ErrInvalidOperation, a.id)
		}
		if err := requireUser(ctx, repos, session.site.name, session.username); err != nil {
			return err
		}
		if err := requireUser(ctx, repos, a.site.name, a.seller); err != nil {
			return err
		}
		if !sameSite {
			return fmt.Errorf("%w: bidder and seller are on different sites", common.ErrInvalidOperation)
		}

		outcome = evaluateBid(*row, session.username, offer, a.site.increment)
		if outcome.changed {
			if err := repos.Auctions().Update(ctx, &outcome.next); err != nil {
				return err
			}
		}
		return repos.Sessions().UpdateValidUntil(ctx, session.id, now.Add(a.site.expiry))
	})
	if err != nil {
		return false, err
	}

	evType := events.TypeBidRejected
	if outcome.accepted {
		evType = events.TypeBidAccepted
	}
	a.site.log.Debug(ctx, "bid evaluated", "auction_id", a.id, "bidder", session.username,
		"offer", offer.String(), "accepted", outcome.accepted, "price", outcome.next.CurrentPrice.String())
	a.site.deps.publish(ctx, events.Event{
		Type:         evType,
		Site:         a.site.name,
		AuctionID:    a.id,
		Username:     session.username,
		Amount:       offer,
		CurrentPrice: outcome.next.CurrentPrice,
		At:           now,
	})
	return outcome.accepted, nil
}

func requireUser(ctx context.Context, repos repomanager.Repositories, site, username string) error {
	_, err := repos.Users().Get(ctx, site, username)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: user %q no longer exists", common.ErrInvalidOperation, username)
	}
	return err
}
