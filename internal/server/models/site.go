// Package models defines the records persisted by the auction host.
package models

import "github.com/shopspring/decimal"

// Site is a tenant marketplace. Its settings never change after creation.
type Site struct {
	Name                       string
	Timezone                   int
	SessionExpirationInSeconds int
	MinimumBidIncrement        decimal.Decimal
}

// SiteInfo is the discovery view of a site.
type SiteInfo struct {
	Name     string
	Timezone int
}
