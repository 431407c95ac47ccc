package repomanager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/auctions"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/sites"
	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/users"
)

type userKey struct {
	site     string
	username string
}

type memState struct {
	sites    map[string]models.Site
	users    map[userKey]models.User
	sessions map[string]models.Session
	auctions map[int64]models.Auction
	nextID   int64
}

func newMemState() *memState {
	return &memState{
		sites:    make(map[string]models.Site),
		users:    make(map[userKey]models.User),
		sessions: make(map[string]models.Session),
		auctions: make(map[int64]models.Auction),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		sites:    make(map[string]models.Site, len(s.sites)),
		users:    make(map[userKey]models.User, len(s.users)),
		sessions: make(map[string]models.Session, len(s.sessions)),
		auctions: make(map[int64]models.Auction, len(s.auctions)),
		nextID:   s.nextID,
	}
	for k, v := range s.sites {
		c.sites[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.auctions {
		c.auctions[k] = copyAuction(v)
	}
	return c
}

func copyAuction(a models.Auction) models.Auction {
	if a.Winner != nil {
		w := *a.Winner
		a.Winner = &w
	}
	return a
}

// InMemoryRepositoryManager keeps every record in process memory. Units of
// work are serialized by one mutex; a failed unit restores the snapshot taken
// when it started. Nested WithTx calls deadlock.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	state *memState
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{state: newMemState()}
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	defer func() {
		if p := recover(); p != nil {
			m.state = snapshot
			panic(p)
		}
		if err != nil {
			m.state = snapshot
		}
	}()

	return fn(ctx, memRepositories{s: m.state})
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) ResetSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newMemState()
	return nil
}

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}

type memRepositories struct {
	s *memState
}

func (r memRepositories) Sites() sites.Repository       { return memSites(r) }
func (r memRepositories) Users() users.Repository       { return memUsers(r) }
func (r memRepositories) Sessions() sessions.Repository { return memSessions(r) }
func (r memRepositories) Auctions() auctions.Repository { return memAuctions(r) }

type memSites struct{ s *memState }

func (r memSites) Create(ctx context.Context, site *models.Site) error {
	if _, ok := r.s.sites[site.Name]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.sites[site.Name] = *site
	return nil
}

func (r memSites) Get(ctx context.Context, name string) (*models.Site, error) {
	site, ok := r.s.sites[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &site, nil
}

func (r memSites) List(ctx context.Context) ([]models.SiteInfo, error) {
	infos := make([]models.SiteInfo, 0, len(r.s.sites))
	for _, site := range r.s.sites {
		infos = append(infos, models.SiteInfo{Name: site.Name, Timezone: site.Timezone})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (r memSites) Delete(ctx context.Context, name string) error {
	if _, ok := r.s.sites[name]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.sites, name)
	return nil
}

type memUsers struct{ s *memState }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	key := userKey{user.SiteName, user.Username}
	if _, ok := r.s.users[key]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.users[key] = *user
	return nil
}

func (r memUsers) Get(ctx context.Context, siteName, username string) (*models.User, error) {
	user, ok := r.s.users[userKey{siteName, username}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &user, nil
}

func (r memUsers) ListBySite(ctx context.Context, siteName string) ([]*models.User, error) {
	result := make([]*models.User, 0)
	for _, user := range r.s.users {
		if user.SiteName == siteName {
			u := user
			result = append(result, &u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r memUsers) Delete(ctx context.Context, siteName, username string) error {
	key := userKey{siteName, username}
	if _, ok := r.s.users[key]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, key)
	return nil
}

func (r memUsers) DeleteBySite(ctx context.Context, siteName string) error {
	for key := range r.s.users {
		if key.site == siteName {
			delete(r.s.users, key)
		}
	}
	return nil
}

type memSessions struct{ s *memState }

func (r memSessions) Upsert(ctx context.Context, session *models.Session) error {
	if existing, ok := r.s.sessions[session.ID]; ok {
		existing.ValidUntil = session.ValidUntil
		r.s.sessions[session.ID] = existing
		return nil
	}
	r.s.sessions[session.ID] = *session
	return nil
}

func (r memSessions) Get(ctx context.Context, id string) (*models.Session, error) {
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &session, nil
}

func (r memSessions) GetForUpdate(ctx context.Context, id string) (*models.Session, error) {
	return r.Get(ctx, id)
}

func (r memSessions) ListAlive(ctx context.Context, siteName string, now time.Time) ([]*models.Session, error) {
	result := make([]*models.Session, 0)
	for _, session := range r.s.sessions {
		if session.SiteName == siteName && session.AliveAt(now) {
			s := session
			result = append(result, &s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r memSessions) UpdateValidUntil(ctx context.Context, id string, validUntil time.Time) error {
	session, ok := r.s.sessions[id]
	if !ok {
		return common.ErrorNotFound
	}
	session.ValidUntil = validUntil
	r.s.sessions[id] = session
	return nil
}

func (r memSessions) DeleteExpired(ctx context.Context, siteName string, now time.Time) (int64, error) {
	var n int64
	for id, session := range r.s.sessions {
		if session.SiteName == siteName && !session.AliveAt(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r memSessions) DeleteByUser(ctx context.Context, siteName, username string) error {
	for id, session := range r.s.sessions {
		if session.SiteName == siteName && session.Username == username {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r memSessions) DeleteBySite(ctx context.Context, siteName string) error {
	for id, session := range r.s.sessions {
		if session.SiteName == siteName {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

type memAuctions struct{ s *memState }

func (r memAuctions) Create(ctx context.Context, auction *models.Auction) error {
	r.s.nextID++
	auction.ID = r.s.nextID
	r.s.auctions[auction.ID] = copyAuction(*auction)
	return nil
}

func (r memAuctions) Get(ctx context.Context, id int64) (*models.Auction, error) {
	auction, ok := r.s.auctions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a := copyAuction(auction)
	return &a, nil
}

func (r memAuctions) GetForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	return r.Get(ctx, id)
}

func (r memAuctions) filter(keep func(models.Auction) bool) []*models.Auction {
	result := make([]*models.Auction, 0)
	for _, auction := range r.s.auctions {
		if keep(auction) {
			a := copyAuction(auction)
			result = append(result, &a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r memAuctions) ListBySite(ctx context.Context, siteName string, onlyOpen bool, now time.Time) ([]*models.Auction, error) {
	return r.filter(func(a models.Auction) bool {
		return a.SiteName == siteName && (!onlyOpen || !a.EndedAt(now))
	}), nil
}

func (r memAuctions) ListWonBy(ctx context.Context, siteName, username string, now time.Time) ([]*models.Auction, error) {
	return r.filter(func(a models.Auction) bool {
		return a.SiteName == siteName && a.HasBids() && a.WonBy(username) && a.EndedAt(now)
	}), nil
}

func (r memAuctions) Update(ctx context.Context, auction *models.Auction) error {
	stored, ok := r.s.auctions[auction.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.CurrentPrice = auction.CurrentPrice
	stored.MaximumOffer = auction.MaximumOffer
	stored.Winner = auction.Winner
	r.s.auctions[auction.ID] = copyAuction(stored)
	return nil
}

func (r memAuctions) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.auctions[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.auctions, id)
	return nil
}

func (r memAuctions) exists(match func(models.Auction) bool) bool {
	for _, auction := range r.s.auctions {
		if match(auction) {
			return true
		}
	}
	return false
}

func (r memAuctions) ExistsOpenBySeller(ctx context.Context, siteName, username string, now time.Time) (bool, error) {
	return r.exists(func(a models.Auction) bool {
		return a.SiteName == siteName && a.Seller == username && !a.EndedAt(now)
	}), nil
}

func (r memAuctions) ExistsOpenByWinner(ctx context.Context, siteName, username string, now time.Time) (bool, error) {
	return r.exists(func(a models.Auction) bool {
		return a.SiteName == siteName && a.HasBids() && a.WonBy(username) && !a.EndedAt(now)
	}), nil
}

func (r memAuctions) DeleteBySeller(ctx context.Context, siteName, username string) error {
	for id, auction := range r.s.auctions {
		if auction.SiteName == siteName && auction.Seller == username {
			delete(r.s.auctions, id)
		}
	}
	return nil
}

func (r memAuctions) ClearWinner(ctx context.Context, siteName, username string) error {
	for id, auction := range r.s.auctions {
		if auction.SiteName == siteName && auction.WonBy(username) {
			auction.Winner = nil
			r.s.auctions[id] = auction
		}
	}
	return nil
}

func (r memAuctions) DeleteBySite(ctx context.Context, siteName string) error {
	for id, auction := range r.s.auctions {
		if auction.SiteName == siteName {
			delete(r.s.auctions, id)
		}
	}
	return nil
}
