package services

import (
	"context"
	"sync"
	"time"

	"vehicle-auction/internal/domain"
)

// memStore backs the repository mocks. Bid appends and auction
// projection updates happen under one mutex, mirroring the single
// transaction the MySQL repository uses.
type memStore struct {
	mu       sync.Mutex
	auctions map[string]*domain.Auction
	bids     []*domain.Bid
}

func newMemStore() *memStore {
	return &memStore{auctions: make(map[string]*domain.Auction)}
}

func (s *memStore) put(auction *domain.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *auction
	s.auctions[auction.ID] = &cp
}

func (s *memStore) get(auctionID string) (*domain.Auction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

type mockAuctionRepo struct {
	store *memStore
}

func (m *mockAuctionRepo) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	m.store.put(auction)
	return nil
}

func (m *mockAuctionRepo) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	a, ok := m.store.get(auctionID)
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}

func (m *mockAuctionRepo) UpdateAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if a, ok := m.store.auctions[auctionID]; ok {
		a.Status = status
	}
	return nil
}

func (m *mockAuctionRepo) SetWinner(ctx context.Context, auctionID, bidderID string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if a, ok := m.store.auctions[auctionID]; ok {
		a.WinningBidderID = bidderID
	}
	return nil
}

func (m *mockAuctionRepo) GetPublishedAuctions(ctx context.Context) ([]*domain.Auction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Auction
	for _, a := range m.store.auctions {
		if a.Status == domain.AuctionPublished {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockBidRepo struct {
	store   *memStore
	failure error // returned by Append when set
}

func (m *mockBidRepo) Append(ctx context.Context, auction *domain.Auction, bid *domain.Bid) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if m.failure != nil {
		return m.failure
	}

	cp := *bid
	m.store.bids = append(m.store.bids, &cp)

	stored, ok := m.store.auctions[auction.ID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	stored.CurrentPrice = auction.CurrentPrice
	stored.CurrentBidderID = auction.CurrentBidderID
	stored.EndAt = auction.EndAt
	stored.ExtensionCount = auction.ExtensionCount
	stored.UpdatedAt = auction.UpdatedAt
	return nil
}

func (m *mockBidRepo) GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.Bid
	for _, b := range m.store.bids {
		if b.AuctionID == auctionID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockBidRepo) GetHighestBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var best *domain.Bid
	for _, b := range m.store.bids {
		if b.AuctionID == auctionID && (best == nil || b.Amount > best.Amount) {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockAuditRepo) ListForAuction(ctx context.Context, auctionID string) ([]*domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditEntry
	for _, e := range m.entries {
		if e.AuctionID == auctionID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) byOutcome(outcome domain.AuditOutcome) []*domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditEntry
	for _, e := range m.entries {
		if e.Outcome == outcome {
			out = append(out, e)
		}
	}
	return out
}

type mockStateCache struct {
	mu       sync.Mutex
	statuses map[string]domain.AuctionStatus
}

func newMockStateCache() *mockStateCache {
	return &mockStateCache{statuses: make(map[string]domain.AuctionStatus)}
}

func (m *mockStateCache) SetAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[auctionID] = status
	return nil
}

func (m *mockStateCache) GetAuctionStatus(ctx context.Context, auctionID string) (domain.AuctionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[auctionID], nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []*domain.AuctionEvent
}

func (m *mockEventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

func (m *mockEventPublisher) byType(t domain.AuctionEventType) []*domain.AuctionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuctionEvent
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type mockScheduler struct {
	mu          sync.Mutex
	publishes   map[string]time.Time
	ends        map[string]time.Time
	reschedules map[string]time.Time
	cancelled   map[string]bool
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{
		publishes:   make(map[string]time.Time),
		ends:        make(map[string]time.Time),
		reschedules: make(map[string]time.Time),
		cancelled:   make(map[string]bool),
	}
}

func (m *mockScheduler) SchedulePublish(ctx context.Context, auctionID string, startAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishes[auctionID] = startAt
	return nil
}

func (m *mockScheduler) ScheduleEnd(ctx context.Context, auctionID string, endAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ends[auctionID] = endAt
	return nil
}

func (m *mockScheduler) RescheduleEnd(ctx context.Context, auctionID string, newEndAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reschedules[auctionID] = newEndAt
	return nil
}

func (m *mockScheduler) CancelSchedule(ctx context.Context, auctionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled[auctionID] = true
	return nil
}

func (m *mockScheduler) rescheduledTo(auctionID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.reschedules[auctionID]
	return at, ok
}

type mockAutoBidRepo struct {
	mu       sync.Mutex
	autoBids map[string]*domain.AutoBid
}

func newMockAutoBidRepo() *mockAutoBidRepo {
	return &mockAutoBidRepo{autoBids: make(map[string]*domain.AutoBid)}
}

func (m *mockAutoBidRepo) Create(ctx context.Context, autoBid *domain.AutoBid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *autoBid
	m.autoBids[autoBid.ID] = &cp
	return nil
}

func (m *mockAutoBidRepo) Update(ctx context.Context, autoBid *domain.AutoBid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.autoBids[autoBid.ID]; !ok {
		return domain.ErrAutoBidNotFound
	}
	cp := *autoBid
	m.autoBids[autoBid.ID] = &cp
	return nil
}

func (m *mockAutoBidRepo) Delete(ctx context.Context, autoBidID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.autoBids[autoBidID]; !ok {
		return domain.ErrAutoBidNotFound
	}
	delete(m.autoBids, autoBidID)
	return nil
}

func (m *mockAutoBidRepo) GetByID(ctx context.Context, autoBidID string) (*domain.AutoBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ab, ok := m.autoBids[autoBidID]
	if !ok {
		return nil, domain.ErrAutoBidNotFound
	}
	cp := *ab
	return &cp, nil
}

func (m *mockAutoBidRepo) GetForUserAuction(ctx context.Context, userID, auctionID string) (*domain.AutoBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ab := range m.autoBids {
		if ab.UserID == userID && ab.AuctionID == auctionID {
			cp := *ab
			return &cp, nil
		}
	}
	return nil, domain.ErrAutoBidNotFound
}

func (m *mockAutoBidRepo) GetActiveForAuction(ctx context.Context, auctionID string) ([]*domain.AutoBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AutoBid
	for _, ab := range m.autoBids {
		if ab.AuctionID == auctionID && ab.IsActive {
			cp := *ab
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAutoBidRepo) GetActiveAutoBids(ctx context.Context) ([]*domain.AutoBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AutoBid
	for _, ab := range m.autoBids {
		if ab.IsActive {
			cp := *ab
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAutoBidRepo) MarkExecuted(ctx context.Context, autoBidID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ab, ok := m.autoBids[autoBidID]
	if !ok {
		return domain.ErrAutoBidNotFound
	}
	ab.HasExecuted = true
	ab.LastExecutedAt = &at
	return nil
}

func (m *mockAutoBidRepo) RecordExecution(ctx context.Context, autoBidID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ab, ok := m.autoBids[autoBidID]
	if !ok {
		return domain.ErrAutoBidNotFound
	}
	ab.LastExecutedAt = &at
	return nil
}

func (m *mockAutoBidRepo) Deactivate(ctx context.Context, autoBidID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ab, ok := m.autoBids[autoBidID]
	if !ok {
		return domain.ErrAutoBidNotFound
	}
	ab.IsActive = false
	return nil
}

func (m *mockAutoBidRepo) DeactivateForAuction(ctx context.Context, auctionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ab := range m.autoBids {
		if ab.AuctionID == auctionID {
			ab.IsActive = false
		}
	}
	return nil
}

type mockNotifier struct {
	mu       sync.Mutex
	messages map[string][]interface{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{messages: make(map[string][]interface{})}
}

func (m *mockNotifier) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[userID] = append(m.messages[userID], message)
	return nil
}

func (m *mockNotifier) notified(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages[userID])
}
