package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/auctionhost/internal/clock"
	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/cryptox"
	"github.com/dmitrijs2005/auctionhost/internal/logging"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// sessionNamespace seeds the name-based session ids.
var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:auctionhost:session"))

// SessionID is the deterministic id of the session slot of username at site.
func SessionID(site, username string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(site+"\x00"+username)).String()
}

// Site is the controller of one site. Its settings are immutable once the
// site exists; everything else is read from the store on each call.
type Site struct {
	host      *Host
	deps      *deps
	log       logging.Logger
	name      string
	timezone  int
	expiry    time.Duration
	increment decimal.Decimal
	clock     clock.Clock

	alarm    clock.Alarm
	stopOnce sync.Once
}

func newSite(h *Host, row *models.Site, clk clock.Clock) *Site {
	s := &Site{
		host:      h,
		deps:      h.deps,
		log:       h.deps.log.With("site", row.Name),
		name:      row.Name,
		timezone:  row.Timezone,
		expiry:    time.Duration(row.SessionExpirationInSeconds) * time.Second,
		increment: row.MinimumBidIncrement,
		clock:     clk,
	}
	s.alarm = clk.InstantiateAlarm(h.deps.sweepInterval)
	s.alarm.OnRing(s.sweep)
	return s
}

func (s *Site) Name() string { return s.name }

func (s *Site) Timezone() int { return s.timezone }

func (s *Site) SessionExpirationInSeconds() int { return int(s.expiry / time.Second) }

func (s *Site) MinimumBidIncrement() decimal.Decimal { return s.increment }

// Now is the current time on the site's clock.
func (s *Site) Now() time.Time { return s.clock.Now() }

// Equal reports whether both controllers are for the same site.
func (s *Site) Equal(other *Site) bool {
	return other != nil && s.name == other.name
}

func (s *Site) matches(row *models.Site) bool {
	return row.Timezone == s.timezone &&
		row.SessionExpirationInSeconds == s.SessionExpirationInSeconds() &&
		row.MinimumBidIncrement.Equal(s.increment)
}

func (s *Site) localize(t time.Time) time.Time {
	return t.In(clock.Location(s.timezone))
}

// requireSite fails with ErrInvalidOperation once the site row is gone.
func (s *Site) requireSite(ctx context.Context, repos repomanager.Repositories) error {
	if _, err := repos.Sites().Get(ctx, s.name); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: site %q no longer exists", common.ErrInvalidOperation, s.name)
		}
		return err
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < common.MinUserName || n > common.MaxUserName {
		return fmt.Errorf("%w: username must be %d..%d characters",
			common.ErrArgumentInvalid, common.MinUserName, common.MaxUserName)
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < common.MinUserPassword {
		return fmt.Errorf("%w: password must be at least %d characters",
			common.ErrArgumentInvalid, common.MinUserPassword)
	}
	return nil
}

// CreateUser adds an account to the site.
func (s *Site) CreateUser(ctx context.Context, username, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := cryptox.HashPasswordWithParams(password, s.deps.passwordParams)
	if err != nil {
		return nil, common.Unavailable(err)
	}

	err = s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		err := repos.Users().Create(ctx, &models.User{SiteName: s.name, Username: username, PasswordHash: hash})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("%w: user %q", common.ErrNameAlreadyInUse, username)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user created", "username", username)
	return s.user(username), nil
}

// Login opens or renews the session of username. A nil session with a nil
// error means the credentials did not match.
func (s *Site) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	var hash string
	err := s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		u, err := repos.Users().Get(ctx, s.name, username)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		hash = u.PasswordHash
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hash == "" {
		cryptox.VerifyDecoy(password, s.deps.passwordParams)
		s.log.Debug(ctx, "login rejected", "username", username)
		return nil, nil
	}
	ok, err := cryptox.VerifyPassword(password, hash)
	if err != nil {
		return nil, common.Unavailable(err)
	}
	if !ok {
		s.log.Debug(ctx, "login rejected", "username", username)
		return nil, nil
	}

	// The hash was verified outside any unit of work. The account must
	// still hold that exact hash when the session is written.
	id := SessionID(s.name, username)
	stale := false
	err = s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		u, err := repos.Users().Get(ctx, s.name, username)
		if errors.Is(err, common.ErrorNotFound) {
			stale = true
			return nil
		}
		if err != nil {
			return err
		}
		if u.PasswordHash != hash {
			stale = true
			return nil
		}
		return repos.Sessions().Upsert(ctx, &models.Session{
			ID:         id,
			SiteName:   s.name,
			Username:   username,
			Timezone:   s.timezone,
			ValidUntil: s.Now().Add(s.expiry),
		})
	})
	if err != nil {
		return nil, err
	}
	if stale {
		s.log.Debug(ctx, "login rejected, account changed", "username", username)
		return nil, nil
	}
	s.log.Debug(ctx, "login accepted", "username", username)
	return s.session(id, username), nil
}

// Users lists the accounts of the site.
func (s *Site) Users(ctx context.Context) ([]*User, error) {
	var rows []*models.User
	err := s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		var err error
		rows, err = repos.Users().ListBySite(ctx, s.name)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]*User, 0, len(rows))
	for _, r := range rows {
		result = append(result, s.user(r.Username))
	}
	return result, nil
}

// Sessions lists the sessions that are still alive.
func (s *Site) Sessions(ctx context.Context) ([]*Session, error) {
	var rows []*models.Session
	err := s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		var err error
		rows, err = repos.Sessions().ListAlive(ctx, s.name, s.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]*Session, 0, len(rows))
	for _, r := range rows {
		result = append(result, s.session(r.ID, r.Username))
	}
	return result, nil
}

// Auctions lists the site's auctions, optionally only those not yet ended.
func (s *Site) Auctions(ctx context.Context, onlyNotEnded bool) ([]*Auction, error) {
	var rows []*models.Auction
	err := s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		var err error
		rows, err = repos.Auctions().ListBySite(ctx, s.name, onlyNotEnded, s.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	result := make([]*Auction, 0, len(rows))
	for _, r := range rows {
		result = append(result, s.auction(r))
	}
	return result, nil
}

// Delete removes the site together with its auctions, sessions and users,
// and stops its sweep.
func (s *Site) Delete(ctx context.Context) error {
	err := s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		if err := repos.Auctions().DeleteBySite(ctx, s.name); err != nil {
			return err
		}
		if err := repos.Sessions().DeleteBySite(ctx, s.name); err != nil {
			return err
		}
		if err := repos.Users().DeleteBySite(ctx, s.name); err != nil {
			return err
		}
		return repos.Sites().Delete(ctx, s.name)
	})
	if err != nil {
		return err
	}
	s.Close()
	s.log.Info(ctx, "site deleted")
	return nil
}

// CleanupSessions removes every session whose valid-until is not after now
// and reports how many were removed.
func (s *Site) CleanupSessions(ctx context.Context) (int64, error) {
	var removed int64
	err := s.deps.withTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := s.requireSite(ctx, repos); err != nil {
			return err
		}
		var err error
		removed, err = repos.Sessions().DeleteExpired(ctx, s.name, s.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Site) sweep() {
	ctx := context.Background()
	removed, err := s.CleanupSessions(ctx)
	switch {
	case errors.Is(err, common.ErrInvalidOperation):
		s.log.Warn(ctx, "site vanished, stopping session sweep")
		s.Close()
	case err != nil:
		s.log.Error(ctx, "session sweep failed", "error", err)
	case removed > 0:
		s.log.Debug(ctx, "expired sessions removed", "count", removed)
	}
}

// Close stops the sweep and detaches the controller from its host.
func (s *Site) Close() {
	s.stopAlarm()
	s.host.forget(s)
}

func (s *Site) stopAlarm() {
	s.stopOnce.Do(s.alarm.Stop)
}

func (s *Site) user(username string) *User {
	return &User{site: s, username: username}
}

func (s *Site) session(id, username string) *Session {
	return &Session{site: s, id: id, username: username}
}

func (s *Site) auction(row *models.Auction) *Auction {
	return &Auction{
		site:        s,
		id:          row.ID,
		seller:      row.Seller,
		description: row.Description,
		endsOn:      s.localize(row.EndsOn),
	}
}
