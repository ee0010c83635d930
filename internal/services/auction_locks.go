package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vehicle-auction/internal/domain"
)

// AuctionLocks serializes all mutations of one auction's price and
// clock, whether they come from a request handler or the proxy
// scheduler. Different auctions proceed in parallel; there is no
// cross-auction lock. A caller that cannot acquire the lock within the
// configured timeout gets domain.ErrBusy instead of queuing forever.
type AuctionLocks struct {
	mu      sync.Mutex
	locks   map[string]chan struct{}
	timeout time.Duration
}

func NewAuctionLocks(timeout time.Duration) *AuctionLocks {
	return &AuctionLocks{
		locks:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

// Acquire blocks until the auction's lock is held, the timeout fires,
// or ctx is cancelled. On success the returned release func must be
// called exactly once.
func (l *AuctionLocks) Acquire(ctx context.Context, auctionID string) (func(), error) {
	ch := l.lockFor(auctionID)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, domain.ErrBusy
	case <-ctx.Done():
		return nil, fmt.Errorf("acquiring lock for auction %s: %w", auctionID, ctx.Err())
	}
}

func (l *AuctionLocks) lockFor(auctionID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[auctionID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[auctionID] = ch
	}
	return ch
}

// Forget drops the lock entry for an ended auction. A held lock is
// left in place: deleting it would let a waiter parked on the old
// channel overlap with an acquirer on a recreated one.
func (l *AuctionLocks) Forget(auctionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.locks[auctionID]; ok && len(ch) == 0 {
		delete(l.locks, auctionID)
	}
}
