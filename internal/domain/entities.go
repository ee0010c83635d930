package domain

import (
	"time"
)

// Auction is the aggregate root for one vehicle listing. CurrentPrice
// and EndAt are projections owned by the bidding engine: nothing else
// writes them.
type Auction struct {
	ID              string
	SellerID        string
	StartingPrice   float64
	CurrentPrice    float64
	ReservePrice    float64 // 0 means no reserve; never exposed to bidders
	CurrentBidderID string
	WinningBidderID string
	StartAt         time.Time
	EndAt           time.Time
	ExtensionCount  int
	Status          AuctionStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AcceptingBids reports whether a bid submitted at now can be considered.
func (a *Auction) AcceptingBids(now time.Time) bool {
	return a.Status == AuctionPublished && now.Before(a.EndAt)
}

// ReserveState derives the bidder-facing reserve signal. The reserve
// value itself stays server-side.
func (a *Auction) ReserveState() ReserveState {
	return ReserveStateOf(a.CurrentPrice, a.ReservePrice)
}

type AuctionStatus int

const (
	AuctionDraft AuctionStatus = iota
	AuctionPublished
	AuctionEnded
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionDraft:
		return "draft"
	case AuctionPublished:
		return "published"
	case AuctionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type ReserveState string

const (
	ReserveNone   ReserveState = "none"
	ReserveMet    ReserveState = "met"
	ReserveNotMet ReserveState = "not_met"
)

// ReserveStateOf is monotone in currentPrice: once met it never reverts,
// because the current price never decreases.
func ReserveStateOf(currentPrice, reservePrice float64) ReserveState {
	if reservePrice <= 0 {
		return ReserveNone
	}
	if currentPrice >= reservePrice {
		return ReserveMet
	}
	return ReserveNotMet
}

type BidOrigin string

const (
	OriginHuman BidOrigin = "human"
	OriginProxy BidOrigin = "proxy"
)

// Bid is immutable once accepted. Rejected attempts never become Bids;
// they are recorded as audit entries only.
type Bid struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    float64
	Origin    BidOrigin
	CreatedAt time.Time
}

type AutoBidStrategy string

const (
	StrategySnipe       AutoBidStrategy = "snipe"
	StrategyIncremental AutoBidStrategy = "incremental"
)

// AutoBid is a standing instruction to bid on a user's behalf, one per
// user per auction. MaxAmount is a hard ceiling.
type AutoBid struct {
	ID              string
	AuctionID       string
	UserID          string
	MaxAmount       float64
	Strategy        AutoBidStrategy
	TriggerMinutes  int     // snipe: fires when endAt - now <= TriggerMinutes
	IncrementAmount float64 // incremental only
	IsActive        bool
	HasExecuted     bool // snipe fires at most once
	LastExecutedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AuditOutcome string

const (
	AuditAccepted AuditOutcome = "accepted"
	AuditRejected AuditOutcome = "rejected"
)

// AuditEntry records every bid attempt, accepted or rejected, for
// dispute resolution. Kind carries the rejection kind ("" on accept).
type AuditEntry struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    float64
	Origin    BidOrigin
	Outcome   AuditOutcome
	Kind      string
	CreatedAt time.Time
}

// BidSnapshot is the state returned to a bidder after a successful
// submission, and the body of the auction snapshot endpoint.
type BidSnapshot struct {
	AuctionID      string
	CurrentPrice   float64
	MinimumBid     float64
	EndAt          time.Time
	ExtensionCount int
	ReserveState   ReserveState
}

type ScheduledJob struct {
	ID        string
	AuctionID string
	JobType   JobType
	RunAt     time.Time
	Status    JobStatus
	CreatedAt time.Time
}

type JobType string

const (
	JobPublishAuction JobType = "publish_auction"
	JobEndAuction     JobType = "end_auction"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)
