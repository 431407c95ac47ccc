package services

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogout(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")

	e.clocks.Advance(5 * time.Second)
	require.NoError(t, sess.Logout(e.ctx))

	until, err := sess.ValidUntil(e.ctx)
	require.NoError(t, err)
	now := s.Now()
	assert.False(t, until.After(now), "expired immediately")
	assert.True(t, until.Equal(now.Add(-time.Second)))

	assert.ErrorIs(t, sess.Logout(e.ctx), common.ErrInvalidOperation)
}

func TestLogout_AfterNaturalExpiry(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")

	e.clockFor(siteTZ).Set(t0.Add(siteExpiry * time.Second))
	assert.ErrorIs(t, sess.Logout(e.ctx), common.ErrInvalidOperation)
}

func TestLoginAfterLogoutRevives(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")
	require.NoError(t, sess.Logout(e.ctx))

	again, err := s.Login(e.ctx, "alice", "secret-alice")
	require.NoError(t, err)
	until, err := again.ValidUntil(e.ctx)
	require.NoError(t, err)
	assert.True(t, until.After(s.Now()))
}

func TestCreateAuction(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")

	e.clocks.Advance(20 * time.Second)
	ends := t0.Add(time.Hour)
	a, err := sess.CreateAuction(e.ctx, "brass lamp", ends, d("10"))
	require.NoError(t, err)

	assert.Equal(t, "brass lamp", a.Description())
	assert.True(t, a.EndsOn().Equal(ends))
	assert.Equal(t, "alice", a.Seller().Username())

	price, err := a.CurrentPrice(e.ctx)
	require.NoError(t, err)
	assert.True(t, price.Equal(d("10")))
	winner, err := a.CurrentWinner(e.ctx)
	require.NoError(t, err)
	assert.Nil(t, winner)

	until, err := sess.ValidUntil(e.ctx)
	require.NoError(t, err)
	assert.True(t, until.Equal(t0.Add(20*time.Second+siteExpiry*time.Second)), "creating an auction renews the session")

	assert.Equal(t, []string{events.TypeAuctionCreated}, e.publisher.types())
	assert.Equal(t, a.ID(), e.publisher.events[0].AuctionID)
}

func TestCreateAuction_EndingNowIsAllowed(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")

	_, err := sess.CreateAuction(e.ctx, "lamp", s.Now(), d("0"))
	require.NoError(t, err)
}

func TestCreateAuction_Errors(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")
	later := t0.Add(time.Hour)

	_, err := sess.CreateAuction(e.ctx, "", later, d("1"))
	assert.ErrorIs(t, err, common.ErrArgumentInvalid)

	_, err = sess.CreateAuction(e.ctx, "lamp", later, d("-0.01"))
	assert.ErrorIs(t, err, common.ErrArgumentOutOfRange)

	_, err = sess.CreateAuction(e.ctx, "lamp", t0.Add(-time.Second), d("1"))
	assert.ErrorIs(t, err, common.ErrTimeOrdering)

	// Argument errors take precedence over the time check.
	_, err = sess.CreateAuction(e.ctx, "", t0.Add(-time.Second), d("-1"))
	assert.ErrorIs(t, err, common.ErrArgumentInvalid)

	require.NoError(t, sess.Logout(e.ctx))
	_, err = sess.CreateAuction(e.ctx, "lamp", later, d("1"))
	assert.ErrorIs(t, err, common.ErrInvalidOperation)

	all, err := s.Auctions(e.ctx, false)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, e.publisher.types())
}

func TestCreateAuction_SiteGone(t *testing.T) {
	e := newEnv(t)
	s := e.site(t)
	sess := e.login(t, s, "alice")
	require.NoError(t, s.Delete(e.ctx))

	_, err := sess.CreateAuction(e.ctx, "lamp", t0.Add(time.Hour), d("1"))
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
	_, err = sess.ValidUntil(e.ctx)
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}
