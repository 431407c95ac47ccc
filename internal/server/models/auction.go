package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction is a timed English auction. A zero MaximumOffer means nobody has
// bid yet; Winner is nil in that case.
type Auction struct {
	ID           int64
	SiteName     string
	Description  string
	EndsOn       time.Time
	Seller       string
	CurrentPrice decimal.Decimal
	MaximumOffer decimal.Decimal
	Winner       *string
}

// HasBids reports whether any offer has been accepted.
func (a Auction) HasBids() bool {
	return !a.MaximumOffer.IsZero()
}

// EndedAt reports whether the auction closed strictly before now.
func (a Auction) EndedAt(now time.Time) bool {
	return a.EndsOn.Before(now)
}

// WonBy reports whether username is the recorded winner.
func (a Auction) WonBy(username string) bool {
	return a.Winner != nil && *a.Winner == username
}
