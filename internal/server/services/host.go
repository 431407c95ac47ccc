// Package services holds the auction host's business logic: the host that
// creates and loads sites, the per-site controller, sessions, auctions and
// the proxy-bidding rule. Handles are thin identities; every operation
// re-reads the store inside one unit of work.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/auctionhost/internal/clock"
	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// Host creates, discovers and loads sites over one store.
type Host struct {
	deps   *deps
	clocks clock.Factory

	mu    sync.Mutex
	sites map[string]*Site
}

func newHost(d *deps, clocks clock.Factory) *Host {
	return &Host{deps: d, clocks: clocks, sites: make(map[string]*Site)}
}

// CreateSite registers a new site.
func (h *Host) CreateSite(ctx context.Context, name string, timezone, sessionExpirationInSeconds int, minimumBidIncrement decimal.Decimal) error {
	if err := validateSiteName(name); err != nil {
		return err
	}
	if timezone < common.MinTimeZone || timezone > common.MaxTimeZone {
		return fmt.Errorf("%w: timezone %d", common.ErrArgumentOutOfRange, timezone)
	}
	if sessionExpirationInSeconds <= 0 {
		return fmt.Errorf("%w: session expiration %d", common.ErrArgumentOutOfRange, sessionExpirationInSeconds)
	}
	if !minimumBidIncrement.IsPositive() {
		return fmt.Errorf("%w: minimum bid increment %s", common.ErrArgumentOutOfRange, minimumBidIncrement)
	}

	site := &models.Site{
		Name:                       name,
		Timezone:                   timezone,
		SessionExpirationInSeconds: sessionExpirationInSeconds,
		MinimumBidIncrement:        minimumBidIncrement,
	}
	err := h.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := repos.Sites().Create(ctx, site); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return fmt.Errorf("%w: site %q", common.ErrNameAlreadyInUse, name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	h.deps.log.Info(ctx, "site created", "site", name, "timezone", timezone)
	return nil
}

// LoadSite returns the controller of an existing site and arms its session
// sweep. Loading an already loaded site returns the same controller.
func (h *Host) LoadSite(ctx context.Context, name string) (*Site, error) {
	if err := validateSiteName(name); err != nil {
		return nil, err
	}

	var row *models.Site
	err := h.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		var err error
		row, err = repos.Sites().Get(ctx, name)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: site %q", common.ErrInexistentName, name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if cached, ok := h.sites[name]; ok {
		if cached.matches(row) {
			return cached, nil
		}
		// The row was replaced behind our back.
		cached.stopAlarm()
		delete(h.sites, name)
	}

	clk := h.clocks.InstantiateClock(row.Timezone)
	if clk.Timezone() != row.Timezone {
		return nil, fmt.Errorf("%w: site %q has timezone %d but its clock reports %d",
			common.ErrArgumentInvalid, name, row.Timezone, clk.Timezone())
	}

	site := newSite(h, row, clk)
	h.sites[name] = site
	h.deps.log.Info(ctx, "site loaded", "site", name, "timezone", row.Timezone,
		"sweep_interval", h.deps.sweepInterval.String())
	return site, nil
}

// GetSiteInfos lists the name and timezone of every site.
func (h *Host) GetSiteInfos(ctx context.Context) ([]models.SiteInfo, error) {
	var infos []models.SiteInfo
	err := h.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		var err error
		infos, err = repos.Sites().List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// Close stops the sweep of every loaded site.
func (h *Host) Close() {
	h.mu.Lock()
	sites := make([]*Site, 0, len(h.sites))
	for _, s := range h.sites {
		sites = append(sites, s)
	}
	h.sites = make(map[string]*Site)
	h.mu.Unlock()

	for _, s := range sites {
		s.stopAlarm()
	}
}

// forget drops site from the loaded set if it is still the registered one.
func (h *Host) forget(site *Site) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sites[site.name] == site {
		delete(h.sites, site.name)
	}
}

func validateSiteName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < common.MinSiteName || n > common.MaxSiteName {
		return fmt.Errorf("%w: site name must be %d..%d characters",
			common.ErrArgumentInvalid, common.MinSiteName, common.MaxSiteName)
	}
	return nil
}
