package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/clock"
	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/cryptox"
	"github.com/dmitrijs2005/auctionhost/internal/server/events"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var (
	t0         = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	fastParams = cryptox.Params{Time: 1, Memory: 64, Threads: 1, SaltLen: 8, KeyLen: 16}
)

const (
	siteName   = "north"
	siteTZ     = 2
	siteExpiry = 60
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type env struct {
	ctx       context.Context
	manager   *repomanager.InMemoryRepositoryManager
	clocks    *clock.ManualFactory
	publisher *recordingPublisher
	host      *Host
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	e := &env{
		ctx:       context.Background(),
		manager:   repomanager.NewInMemoryRepositoryManager(),
		clocks:    &clock.ManualFactory{Start: t0},
		publisher: &recordingPublisher{},
	}
	require.NoError(t, CreateHost(e.ctx, e.manager))

	all := append([]Option{WithPasswordParams(fastParams), WithPublisher(e.publisher)}, opts...)
	host, err := LoadHost(e.ctx, e.manager, e.clocks, all...)
	require.NoError(t, err)
	e.host = host
	t.Cleanup(host.Close)
	return e
}

// site creates and loads the default site with a 2.00 increment.
func (e *env) site(t *testing.T) *Site {
	t.Helper()
	require.NoError(t, e.host.CreateSite(e.ctx, siteName, siteTZ, siteExpiry, d("2")))
	s, err := e.host.LoadSite(e.ctx, siteName)
	require.NoError(t, err)
	return s
}

func (e *env) login(t *testing.T, s *Site, username string) *Session {
	t.Helper()
	if _, err := s.CreateUser(e.ctx, username, "secret-"+username); err != nil {
		require.ErrorIs(t, err, common.ErrNameAlreadyInUse)
	}
	sess, err := s.Login(e.ctx, username, "secret-"+username)
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess
}

func (e *env) clockFor(tz int) *clock.ManualClock {
	return e.clocks.InstantiateClock(tz).(*clock.ManualClock)
}

// failingManager reports every unit of work as failed.
type failingManager struct {
	repomanager.RepositoryManager
	err error
}

func (m failingManager) WithTx(context.Context, func(context.Context, repomanager.Repositories) error) error {
	return m.err
}

func (m failingManager) Ping(context.Context) error { return nil }

// hookedManager runs after once, right after the next unit of work commits.
type hookedManager struct {
	*repomanager.InMemoryRepositoryManager
	after func()
}

func (m *hookedManager) WithTx(ctx context.Context, fn func(context.Context, repomanager.Repositories) error) error {
	err := m.InMemoryRepositoryManager.WithTx(ctx, fn)
	if hook := m.after; hook != nil {
		m.after = nil
		hook()
	}
	return err
}
