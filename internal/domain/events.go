package domain

import "time"

type AuctionEventType string

const (
	EventBidPlaced       AuctionEventType = "bid.placed"
	EventAuctionExtended AuctionEventType = "auction.extended"
	EventAuctionEnded    AuctionEventType = "auction.ended"
)

// AuctionEvent is the post-commit wire event published to subscribers.
// Delivery is at-least-once; consumers treat CurrentPrice and EndAt as
// idempotent replacements, not deltas. The reserve price never rides on
// an event.
type AuctionEvent struct {
	Type           AuctionEventType `json:"type"`
	AuctionID      string           `json:"auction_id"`
	BidderID       string           `json:"bidder_id,omitempty"`
	CurrentPrice   float64          `json:"current_price,omitempty"`
	EndAt          time.Time        `json:"end_at,omitempty"`
	ExtensionCount int              `json:"extension_count,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}
