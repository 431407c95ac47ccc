package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/clock"
	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/cryptox"
	"github.com/dmitrijs2005/auctionhost/internal/logging"
	"github.com/dmitrijs2005/auctionhost/internal/server/events"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
)

// deps is shared by the host and every handle it vends.
type deps struct {
	repos          repomanager.RepositoryManager
	log            logging.Logger
	publisher      events.Publisher
	sweepInterval  time.Duration
	passwordParams cryptox.Params
}

// withTx runs fn as one unit of work. Errors outside the public taxonomy
// come back wrapped as common.ErrStoreUnavailable.
func (d *deps) withTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	return storeErr(d.repos.WithTx(ctx, fn))
}

func (d *deps) publish(ctx context.Context, ev events.Event) {
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.log.Warn(ctx, "event not published", "type", ev.Type, "site", ev.Site, "error", err)
	}
}

func storeErr(err error) error {
	if err == nil || common.IsDomainError(err) {
		return err
	}
	return common.Unavailable(err)
}

// Option customizes a Host built by LoadHost.
type Option func(*deps)

func WithLogger(l logging.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.log = l
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(d *deps) {
		if p != nil {
			d.publisher = p
		}
	}
}

// WithSweepInterval sets how often each loaded site purges expired
// sessions. Non-positive values keep the default.
func WithSweepInterval(interval time.Duration) Option {
	return func(d *deps) {
		if interval > 0 {
			d.sweepInterval = interval
		}
	}
}

// WithPasswordParams overrides the argon2id cost used for new accounts.
func WithPasswordParams(p cryptox.Params) Option {
	return func(d *deps) {
		d.passwordParams = p
	}
}

// CreateHost wipes the store and lays down an empty schema.
func CreateHost(ctx context.Context, manager repomanager.RepositoryManager) error {
	if manager == nil {
		return fmt.Errorf("%w: repository manager", common.ErrArgumentNull)
	}
	if err := manager.ResetSchema(ctx); err != nil {
		return common.Unavailable(err)
	}
	return nil
}

// LoadHost connects a Host to an existing store.
func LoadHost(ctx context.Context, manager repomanager.RepositoryManager, clocks clock.Factory, opts ...Option) (*Host, error) {
	if manager == nil {
		return nil, fmt.Errorf("%w: repository manager", common.ErrArgumentNull)
	}
	if clocks == nil {
		return nil, fmt.Errorf("%w: clock factory", common.ErrArgumentNull)
	}
	if err := manager.Ping(ctx); err != nil {
		return nil, common.Unavailable(err)
	}

	d := &deps{
		repos:          manager,
		log:            logging.NewNopLogger(),
		publisher:      events.NopPublisher{},
		sweepInterval:  common.DefaultSweepInterval,
		passwordParams: cryptox.DefaultParams,
	}
	for _, opt := range opts {
		opt(d)
	}
	return newHost(d, clocks), nil
}
