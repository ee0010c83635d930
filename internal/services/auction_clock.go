package services

import (
	"time"

	"vehicle-auction/internal/domain"
)

// AuctionClock owns the soft-close rule: a bid accepted while the clock
// is inside the extension window pushes end_at forward so the auction
// cannot be sniped at the last instant. Every qualifying bid may extend
// again; the auction ends once bidding activity stops.
type AuctionClock struct {
	window   time.Duration
	duration time.Duration
}

func NewAuctionClock(window, duration time.Duration) *AuctionClock {
	return &AuctionClock{window: window, duration: duration}
}

// OnBidAccepted applies the extension in place and reports whether the
// clock moved. end_at only ever moves forward.
func (c *AuctionClock) OnBidAccepted(auction *domain.Auction, now time.Time) bool {
	remaining := auction.EndAt.Sub(now)
	if remaining <= 0 || remaining > c.window {
		return false
	}

	auction.EndAt = now.Add(c.duration)
	auction.ExtensionCount++
	return true
}
