package domain

import (
	"context"
	"time"
)

// Repository interfaces
type AuctionRepository interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	UpdateAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	SetWinner(ctx context.Context, auctionID, bidderID string) error
	GetPublishedAuctions(ctx context.Context) ([]*Auction, error)
}

// BidRepository is the append-only ledger. Append runs bid insert and
// auction projection update (current price, clock) in one transaction.
type BidRepository interface {
	Append(ctx context.Context, auction *Auction, bid *Bid) error
	GetBidHistory(ctx context.Context, auctionID string) ([]*Bid, error)
	GetHighestBid(ctx context.Context, auctionID string) (*Bid, error)
}

type AutoBidRepository interface {
	Create(ctx context.Context, autoBid *AutoBid) error
	Update(ctx context.Context, autoBid *AutoBid) error
	Delete(ctx context.Context, autoBidID string) error
	GetByID(ctx context.Context, autoBidID string) (*AutoBid, error)
	GetForUserAuction(ctx context.Context, userID, auctionID string) (*AutoBid, error)
	GetActiveForAuction(ctx context.Context, auctionID string) ([]*AutoBid, error)
	GetActiveAutoBids(ctx context.Context) ([]*AutoBid, error)
	MarkExecuted(ctx context.Context, autoBidID string, at time.Time) error
	RecordExecution(ctx context.Context, autoBidID string, at time.Time) error
	Deactivate(ctx context.Context, autoBidID string) error
	DeactivateForAuction(ctx context.Context, auctionID string) error
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListForAuction(ctx context.Context, auctionID string) ([]*AuditEntry, error)
}

type SchedulerRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetPendingJobs(ctx context.Context, before time.Time) ([]*ScheduledJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
	CancelJobsForAuction(ctx context.Context, auctionID string) error
}

// Cache interfaces
type AuctionStateCache interface {
	SetAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	GetAuctionStatus(ctx context.Context, auctionID string) (AuctionStatus, error)
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// Notification interfaces
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// Lifecycle scheduler interface
type AuctionScheduler interface {
	SchedulePublish(ctx context.Context, auctionID string, startAt time.Time) error
	ScheduleEnd(ctx context.Context, auctionID string, endAt time.Time) error
	RescheduleEnd(ctx context.Context, auctionID string, newEndAt time.Time) error
	CancelSchedule(ctx context.Context, auctionID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, auctionID string, conn WebSocketConnection) error
	UnregisterConnection(userID, auctionID string) error
	GetConnectionsForAuction(auctionID string) []WebSocketConnection
	GetConnectionsForUser(userID string) []WebSocketConnection
	BroadcastToAuction(auctionID string, message interface{}) error
	NotifyUser(userID string, message interface{}) error
	CloseAndUnregisterConnections(auctionID string) error
}
