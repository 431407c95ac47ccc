// Package repomanager groups the per-entity repositories behind a single
// unit-of-work boundary. Every service operation runs inside WithTx.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/auctions"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/sites"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/users"
)

// Repositories is the set of repositories bound to one unit of work.
type Repositories interface {
	Sites() sites.Repository
	Users() users.Repository
	Sessions() sessions.Repository
	Auctions() auctions.Repository
}

type RepositoryManager interface {
	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context) error
	// ResetSchema drops every table and recreates the schema.
	ResetSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	// WithTx runs fn atomically. An error returned by fn discards every
	// change fn made and is returned unchanged.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}
