package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/services"
	"github.com/shopspring/decimal"
)

// Init wipes the store after confirmation. Every loaded site is dropped.
func (a *App) Init(ctx context.Context, _ []string) error {
	ok, err := Confirm(a.reader, "This deletes every site, user and auction. Continue?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := services.CreateHost(ctx, a.manager); err != nil {
		return err
	}
	a.host.Close()
	a.site, a.session = nil, nil
	a.printf("Store initialized")
	return nil
}

func (a *App) Sites(ctx context.Context, _ []string) error {
	infos, err := a.host.GetSiteInfos(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		a.printf("No sites")
	}
	for _, info := range infos {
		a.printf("%-24s UTC%+d", info.Name, info.Timezone)
	}
	return nil
}

func (a *App) CreateSite(ctx context.Context, args []string) error {
	name, err := a.ask(args, 0, "Site name")
	if err != nil {
		return err
	}
	tz, err := a.askInt(args, 1, "Timezone offset in hours")
	if err != nil {
		return err
	}
	expiry, err := a.askInt(args, 2, "Session expiration in seconds")
	if err != nil {
		return err
	}
	inc, err := a.askDecimal(args, 3, "Minimum bid increment")
	if err != nil {
		return err
	}
	if err := a.host.CreateSite(ctx, name, tz, expiry, inc); err != nil {
		return err
	}
	a.printf("Site %s created", name)
	return nil
}

// Use selects the site the following commands act on.
func (a *App) Use(ctx context.Context, args []string) error {
	name, err := a.ask(args, 0, "Site name")
	if err != nil {
		return err
	}
	site, err := a.host.LoadSite(ctx, name)
	if err != nil {
		return err
	}
	if !site.Equal(a.site) {
		a.session = nil
	}
	a.site = site
	a.printf("Using %s (UTC%+d, sessions last %ds, increment %s)",
		site.Name(), site.Timezone(), site.SessionExpirationInSeconds(), site.MinimumBidIncrement())
	return nil
}

func (a *App) DeleteSite(ctx context.Context, _ []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete site %s and everything in it?", site.Name()), a.out)
	if err != nil || !ok {
		return err
	}
	if err := site.Delete(ctx); err != nil {
		return err
	}
	a.site, a.session = nil, nil
	a.printf("Site deleted")
	return nil
}

func (a *App) AddUser(ctx context.Context, args []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	username, err := a.ask(args, 0, "Username")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := site.CreateUser(ctx, username, string(password)); err != nil {
		return err
	}
	a.printf("User %s created", username)
	return nil
}

func (a *App) Users(ctx context.Context, _ []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	users, err := site.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		a.printf("%s", u.Username())
	}
	return nil
}

func (a *App) DeleteUser(ctx context.Context, args []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	username, err := a.ask(args, 0, "Username")
	if err != nil {
		return err
	}
	users, err := site.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username() != username {
			continue
		}
		if err := u.Delete(ctx); err != nil {
			return err
		}
		if a.session != nil && a.session.User().Equal(u) {
			a.session = nil
		}
		a.printf("User %s deleted", username)
		return nil
	}
	return fmt.Errorf("%w: user %q", common.ErrInexistentName, username)
}

func (a *App) Login(ctx context.Context, args []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	username, err := a.ask(args, 0, "Username")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	session, err := site.Login(ctx, username, string(password))
	if err != nil {
		return err
	}
	if session == nil {
		a.printf("Login unsuccessful")
		return nil
	}
	a.session = session
	until, err := session.ValidUntil(ctx)
	if err != nil {
		return err
	}
	a.printf("Logged in as %s until %s", username, until.Format(time.RFC3339))
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	a.session = nil
	return session.Logout(ctx)
}

func (a *App) Sessions(ctx context.Context, _ []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	sessions, err := site.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		until, err := s.ValidUntil(ctx)
		if err != nil {
			return err
		}
		a.printf("%-24s until %s", s.User().Username(), until.Format(time.RFC3339))
	}
	return nil
}

func (a *App) Cleanup(ctx context.Context, _ []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	n, err := site.CleanupSessions(ctx)
	if err != nil {
		return err
	}
	a.printf("Removed %d expired sessions", n)
	return nil
}

// Sell opens an auction for the logged-in user. The end is either a
// duration from the site's now ("90m") or an RFC 3339 timestamp.
func (a *App) Sell(ctx context.Context, _ []string) error {
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	ends, err := GetSimpleText(a.reader, "Ends in (e.g. 90m) or at (RFC 3339)", a.out)
	if err != nil {
		return err
	}
	endsOn, err := parseEnd(a.site.Now(), ends)
	if err != nil {
		return err
	}
	price, err := a.askDecimal(nil, 0, "Starting price")
	if err != nil {
		return err
	}

	auction, err := session.CreateAuction(ctx, description, endsOn, price)
	if err != nil {
		return err
	}
	a.printf("Auction %d created", auction.ID())
	return nil
}

func (a *App) Auctions(ctx context.Context, args []string) error {
	site, err := a.requireSite()
	if err != nil {
		return err
	}
	onlyOpen := len(args) > 0 && args[0] == "open"
	auctions, err := site.Auctions(ctx, onlyOpen)
	if err != nil {
		return err
	}
	for _, au := range auctions {
		a.printAuction(ctx, au)
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	au, err := a.findAuction(ctx, args)
	if err != nil {
		return err
	}
	a.printAuction(ctx, au)
	return nil
}

func (a *App) Bid(ctx context.Context, args []string) error {
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	au, err := a.findAuction(ctx, args)
	if err != nil {
		return err
	}
	offer, err := a.askDecimal(args, 1, "Offer")
	if err != nil {
		return err
	}
	accepted, err := au.Bid(ctx, session, offer)
	if err != nil {
		return err
	}
	if accepted {
		a.printf("Bid accepted")
	} else {
		a.printf("Bid rejected")
	}
	a.printAuction(ctx, au)
	return nil
}

func (a *App) DeleteAuction(ctx context.Context, args []string) error {
	au, err := a.findAuction(ctx, args)
	if err != nil {
		return err
	}
	if err := au.Delete(ctx); err != nil {
		return err
	}
	a.printf("Auction %d deleted", au.ID())
	return nil
}

// Won lists the ended auctions the logged-in user has won.
func (a *App) Won(ctx context.Context, _ []string) error {
	session, err := a.requireSession()
	if err != nil {
		return err
	}
	auctions, err := session.User().WonAuctions(ctx)
	if err != nil {
		return err
	}
	if len(auctions) == 0 {
		a.printf("Nothing won yet")
	}
	for _, au := range auctions {
		a.printAuction(ctx, au)
	}
	return nil
}

func (a *App) findAuction(ctx context.Context, args []string) (*services.Auction, error) {
	site, err := a.requireSite()
	if err != nil {
		return nil, err
	}
	raw, err := a.ask(args, 0, "Auction id")
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: auction id %q", common.ErrArgumentInvalid, raw)
	}
	auctions, err := site.Auctions(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, au := range auctions {
		if au.ID() == id {
			return au, nil
		}
	}
	return nil, fmt.Errorf("%w: auction %d", common.ErrInexistentName, id)
}

func (a *App) printAuction(ctx context.Context, au *services.Auction) {
	price, err := au.CurrentPrice(ctx)
	if err != nil {
		a.printf("%4d %s: %v", au.ID(), au.Description(), err)
		return
	}
	leader := "-"
	if w, err := au.CurrentWinner(ctx); err == nil && w != nil {
		leader = w.Username()
	}
	state := "open"
	if au.EndsOn().Before(a.site.Now()) {
		state = "ended"
	}
	a.printf("%4d %-30s seller=%s price=%s leader=%s ends=%s (%s)",
		au.ID(), au.Description(), au.Seller().Username(), price.StringFixed(2), leader,
		au.EndsOn().Format(time.RFC3339), state)
}

func (a *App) askInt(args []string, i int, prompt string) (int, error) {
	raw, err := a.ask(args, i, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", common.ErrArgumentInvalid, raw)
	}
	return n, nil
}

func (a *App) askDecimal(args []string, i int, prompt string) (decimal.Decimal, error) {
	raw, err := a.ask(args, i, prompt)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not an amount", common.ErrArgumentInvalid, raw)
	}
	return d, nil
}

func parseEnd(now time.Time, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseDuration(raw); err == nil {
		return now.Add(d), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: end %q", common.ErrArgumentInvalid, raw)
	}
	return t, nil
}
