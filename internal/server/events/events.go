// Package events publishes auction activity to interested listeners once the
// corresponding unit of work has committed. Delivery is best effort.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeAuctionCreated = "auction.created"
	TypeBidAccepted    = "bid.accepted"
	TypeBidRejected    = "bid.rejected"
)

// Event is the payload delivered for every published activity.
type Event struct {
	Type         string          `json:"type"`
	Site         string          `json:"site"`
	AuctionID    int64           `json:"auction_id"`
	Username     string          `json:"username"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	At           time.Time       `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
