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

// Session is the handle of a user's login slot at a site.
type Session struct {
	site     *Site
	id       string
	username string
}

func (s *Session) ID() string { return s.id }

func (s *Session) User() *User { return s.site.user(s.username) }

// Equal compares sessions by id.
func (s *Session) Equal(other *Session) bool {
	return other != nil && s.id == other.id
}

// liveSession locks the session row and fails unless it is alive at now.
func (s *Session) liveSession(ctx context.Context, repos repomanager.Repositories, now time.Time) (*models.Session, error) {
	row, err := repos.Sessions().GetForUpdate(ctx, s.id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: session no longer exists", common.ErrInvalidOperation)
	}
	if err != nil {
		return nil, err
	}
	if !row.AliveAt(now) {
		return nil, fmt.Errorf("%w: session expired", common.ErrInvalidOperation)
	}
	return row, nil
}

// ValidUntil reads the current expiry of the session.
func (s *Session) ValidUntil(ctx context.Context) (time.Time, error) {
	var until time.Time
	err := s.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.site.requireSite(ctx, repos); err != nil {
			return err
		}
		row, err := repos.Sessions().Get(ctx, s.id)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: session no longer exists", common.ErrInvalidOperation)
		}
		if err != nil {
			return err
		}
		until = row.ValidUntil
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return s.site.localize(until), nil
}

// Logout expires an alive session one second in the past.
func (s *Session) Logout(ctx context.Context) error {
	err := s.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.site.requireSite(ctx, repos); err != nil {
			return err
		}
		now := s.site.Now()
		if _, err := s.liveSession(ctx, repos, now); err != nil {
			return err
		}
		return repos.Sessions().UpdateValidUntil(ctx, s.id, now.Add(-time.Second))
	})
	if err != nil {
		return err
	}
	s.site.log.Debug(ctx, "logout", "username", s.username)
	return nil
}

// CreateAuction opens an auction sold by the session's user and renews the
// session.
func (s *Session) CreateAuction(ctx context.Context, description string, endsOn time.Time, startingPrice decimal.Decimal) (*Auction, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: empty description", common.ErrArgumentInvalid)
	}
	if startingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: starting price %s", common.ErrArgumentOutOfRange, startingPrice)
	}
	now := s.site.Now()
	if endsOn.Before(now) {
		return nil, fmt.Errorf("%w: auction would end at %s, before %s",
			common.ErrTimeOrdering, endsOn.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	row := &models.Auction{
		SiteName:     s.site.name,
		Description:  description,
		EndsOn:       endsOn,
		Seller:       s.username,
		CurrentPrice: startingPrice,
		MaximumOffer: decimal.Zero,
	}
	err := s.site.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.site.requireSite(ctx, repos); err != nil {
			return err
		}
		if _, err := s.liveSession(ctx, repos, now); err != nil {
			return err
		}
		if err := repos.Auctions().Create(ctx, row); err != nil {
			return err
		}
		return repos.Sessions().UpdateValidUntil(ctx, s.id, now.Add(s.site.expiry))
	})
	if err != nil {
		return nil, err
	}

	s.site.log.Info(ctx, "auction created", "auction_id", row.ID, "seller", s.username)
	s.site.deps.publish(ctx, events.Event{
		Type:         events.TypeAuctionCreated,
		Site:         s.site.name,
		AuctionID:    row.ID,
		Username:     s.username,
		Amount:       startingPrice,
		CurrentPrice: startingPrice,
		At:           now,
	})
	return s.site.auction(row), nil
}
