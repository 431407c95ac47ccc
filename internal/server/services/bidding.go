package services

import (
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/shopspring/decimal"
)

// bidOutcome is the result of applying one offer to an auction.
type bidOutcome struct {
	accepted bool
	// changed is set when next differs from the auction passed in.
	changed bool
	next    models.Auction
}

// evaluateBid applies the proxy-bidding rule. Every branch reads the state
// before mutation; the first matching branch decides.
func evaluateBid(a models.Auction, bidder string, offer, increment decimal.Decimal) bidOutcome {
	next := a
	switch {
	case !a.HasBids():
		next.MaximumOffer = offer
		next.Winner = &bidder
		return bidOutcome{accepted: true, changed: true, next: next}

	case a.WonBy(bidder):
		// A winner may only raise their own ceiling; the price is not checked.
		if offer.LessThan(a.MaximumOffer.Add(increment)) {
			return bidOutcome{next: next}
		}
		next.MaximumOffer = offer
		return bidOutcome{accepted: true, changed: true, next: next}

	case offer.LessThan(a.CurrentPrice):
		return bidOutcome{next: next}

	case offer.LessThan(a.CurrentPrice.Add(increment)):
		return bidOutcome{next: next}

	case offer.GreaterThan(a.MaximumOffer):
		next.CurrentPrice = decimal.Min(offer, a.MaximumOffer.Add(increment))
		next.MaximumOffer = offer
		next.Winner = &bidder
		return bidOutcome{accepted: true, changed: true, next: next}

	default:
		// Losing bid: it still pushes the visible price up.
		next.CurrentPrice = decimal.Min(a.MaximumOffer, offer.Add(increment))
		return bidOutcome{changed: !next.CurrentPrice.Equal(a.CurrentPrice), next: next}
	}
}
