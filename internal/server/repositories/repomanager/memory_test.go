package repomanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, m *InMemoryRepositoryManager) {
	t.Helper()
	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if err := repos.Sites().Create(ctx, &models.Site{Name: "north", Timezone: 1, SessionExpirationInSeconds: 60, MinimumBidIncrement: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		for _, name := range []string{"bob", "alice"} {
			if err := repos.Users().Create(ctx, &models.User{SiteName: "north", Username: name, PasswordHash: "h"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestInMemory_ImplementsManager(t *testing.T) {
	var _ RepositoryManager = NewInMemoryRepositoryManager()
}

func TestInMemory_RollbackOnError(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	sentinel := errors.New("abort")
	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		require.NoError(t, repos.Users().Delete(ctx, "north", "alice"))
		require.NoError(t, repos.Auctions().Create(ctx, &models.Auction{SiteName: "north", Seller: "bob", EndsOn: memNow}))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	err = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		_, err := repos.Users().Get(ctx, "north", "alice")
		assert.NoError(t, err)
		list, err := repos.Auctions().ListBySite(ctx, "north", false, memNow)
		assert.NoError(t, err)
		assert.Empty(t, list)
		return nil
	})
	require.NoError(t, err)
}

func TestInMemory_RollbackOnPanic(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	assert.Panics(t, func() {
		_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
			_ = repos.Sites().Delete(ctx, "north")
			panic("kaboom")
		})
	})

	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		_, err := repos.Sites().Get(ctx, "north")
		return err
	})
	assert.NoError(t, err)
}

func TestInMemory_CancelledContext(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Error(t, m.Ping(ctx))
}

func TestInMemory_DuplicatesAndMissing(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		assert.ErrorIs(t, repos.Sites().Create(ctx, &models.Site{Name: "north"}), common.ErrorAlreadyExists)
		assert.ErrorIs(t, repos.Users().Create(ctx, &models.User{SiteName: "north", Username: "bob"}), common.ErrorAlreadyExists)
		assert.NoError(t, repos.Users().Create(ctx, &models.User{SiteName: "south", Username: "bob"}))

		_, err := repos.Sites().Get(ctx, "south")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.ErrorIs(t, repos.Auctions().Delete(ctx, 42), common.ErrorNotFound)
		assert.ErrorIs(t, repos.Sessions().UpdateValidUntil(ctx, "x", memNow), common.ErrorNotFound)
		return nil
	})
}

func TestInMemory_ListsAreSorted(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		list, err := repos.Users().ListBySite(ctx, "north")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "alice", list[0].Username)
		assert.Equal(t, "bob", list[1].Username)
		return nil
	})
}

func TestInMemory_Sessions(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		s := repos.Sessions()
		require.NoError(t, s.Upsert(ctx, &models.Session{ID: "a", SiteName: "north", Username: "alice", Timezone: 1, ValidUntil: memNow.Add(time.Minute)}))
		require.NoError(t, s.Upsert(ctx, &models.Session{ID: "b", SiteName: "north", Username: "bob", Timezone: 1, ValidUntil: memNow}))

		// Upsert of an existing id only moves valid-until.
		require.NoError(t, s.Upsert(ctx, &models.Session{ID: "a", SiteName: "north", Username: "alice", Timezone: 5, ValidUntil: memNow.Add(time.Hour)}))
		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Timezone)
		assert.True(t, got.ValidUntil.Equal(memNow.Add(time.Hour)))

		alive, err := s.ListAlive(ctx, "north", memNow)
		require.NoError(t, err)
		require.Len(t, alive, 1)
		assert.Equal(t, "a", alive[0].ID)

		n, err := s.DeleteExpired(ctx, "north", memNow)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.DeleteExpired(ctx, "north", memNow)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
}

func TestInMemory_Auctions(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		a := repos.Auctions()
		open := &models.Auction{SiteName: "north", Description: "lamp", Seller: "alice", EndsOn: memNow.Add(time.Hour), CurrentPrice: decimal.NewFromInt(10)}
		closed := &models.Auction{SiteName: "north", Description: "vase", Seller: "alice", EndsOn: memNow.Add(-time.Hour), CurrentPrice: decimal.NewFromInt(3)}
		require.NoError(t, a.Create(ctx, open))
		require.NoError(t, a.Create(ctx, closed))
		assert.Equal(t, int64(1), open.ID)
		assert.Equal(t, int64(2), closed.ID)

		bob := "bob"
		closed.Winner = &bob
		closed.MaximumOffer = decimal.NewFromInt(5)
		require.NoError(t, a.Update(ctx, closed))

		// Mutating the caller's copy must not leak into the store.
		bob = "mallory"
		got, err := a.Get(ctx, closed.ID)
		require.NoError(t, err)
		assert.True(t, got.WonBy("bob"))

		onlyOpen, _ := a.ListBySite(ctx, "north", true, memNow)
		assert.Len(t, onlyOpen, 1)
		won, _ := a.ListWonBy(ctx, "north", "bob", memNow)
		assert.Len(t, won, 1)

		selling, _ := a.ExistsOpenBySeller(ctx, "north", "alice", memNow)
		assert.True(t, selling)
		winning, _ := a.ExistsOpenByWinner(ctx, "north", "bob", memNow)
		assert.False(t, winning)

		require.NoError(t, a.ClearWinner(ctx, "north", "bob"))
		got, _ = a.Get(ctx, closed.ID)
		assert.Nil(t, got.Winner)

		require.NoError(t, a.DeleteBySeller(ctx, "north", "alice"))
		all, _ := a.ListBySite(ctx, "north", false, memNow)
		assert.Empty(t, all)
		return nil
	})
}

func TestInMemory_ResetSchema(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)
	require.NoError(t, m.ResetSchema(context.Background()))

	_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		infos, err := repos.Sites().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
		return nil
	})
}

func TestMemAuctions_ZeroCeilingIsNotAWin(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	seed(t, m)

	_ = m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		a := repos.Auctions()
		bob := "bob"
		open := &models.Auction{SiteName: "north", Description: "lamp", Seller: "alice", EndsOn: memNow.Add(time.Hour), Winner: &bob}
		closed := &models.Auction{SiteName: "north", Description: "vase", Seller: "alice", EndsOn: memNow.Add(-time.Hour), Winner: &bob}
		require.NoError(t, a.Create(ctx, open))
		require.NoError(t, a.Create(ctx, closed))

		winning, err := a.ExistsOpenByWinner(ctx, "north", "bob", memNow)
		require.NoError(t, err)
		assert.False(t, winning)

		won, err := a.ListWonBy(ctx, "north", "bob", memNow)
		require.NoError(t, err)
		assert.Empty(t, won)
		return nil
	})
}
