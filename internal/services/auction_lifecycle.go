package services

import (
	"context"
	"fmt"
	"time"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
	"vehicle-auction/pkg/utils"
)

// AuctionLifecycle owns status transitions: draft at creation,
// published at start, ended at close. Transitions are one-directional
// and driven by scheduled jobs processed on the cron tick. Ending an
// auction resolves the winner from the ledger and retires its
// auto-bids.
type AuctionLifecycle struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	autoBidRepo domain.AutoBidRepository
	stateCache  domain.AuctionStateCache
	eventPub    domain.EventPublisher
	scheduler   domain.AuctionScheduler
	locks       *AuctionLocks
	log         logger.Logger
}

func NewAuctionLifecycle(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	autoBidRepo domain.AutoBidRepository,
	stateCache domain.AuctionStateCache,
	eventPub domain.EventPublisher,
	locks *AuctionLocks,
	log logger.Logger,
) *AuctionLifecycle {
	return &AuctionLifecycle{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		autoBidRepo: autoBidRepo,
		stateCache:  stateCache,
		eventPub:    eventPub,
		locks:       locks,
		log:         log,
	}
}

// SetScheduler breaks the construction cycle between the lifecycle and
// the cron scheduler.
func (al *AuctionLifecycle) SetScheduler(scheduler domain.AuctionScheduler) {
	al.scheduler = scheduler
}

// CreateAuction registers a draft listing and schedules its publish and
// end transitions. reservePrice of 0 means no reserve.
func (al *AuctionLifecycle) CreateAuction(ctx context.Context, sellerID string, startingPrice, reservePrice float64, startAt, endAt time.Time) (*domain.Auction, error) {
	if startingPrice <= 0 {
		return nil, fmt.Errorf("starting price must be positive")
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	now := time.Now()
	auction := &domain.Auction{
		ID:            utils.GenerateID("auction"),
		SellerID:      sellerID,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		ReservePrice:  reservePrice,
		StartAt:       startAt,
		EndAt:         endAt,
		Status:        domain.AuctionDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := al.auctionRepo.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("creating auction: %w", err)
	}

	if err := al.stateCache.SetAuctionStatus(ctx, auction.ID, domain.AuctionDraft); err != nil {
		al.log.Error("Failed to cache auction status", "auction_id", auction.ID, "error", err)
	}

	if err := al.scheduler.SchedulePublish(ctx, auction.ID, startAt); err != nil {
		return nil, fmt.Errorf("scheduling publish: %w", err)
	}
	if err := al.scheduler.ScheduleEnd(ctx, auction.ID, endAt); err != nil {
		return nil, fmt.Errorf("scheduling end: %w", err)
	}

	al.log.Info("Auction created", "auction_id", auction.ID, "start_at", startAt, "end_at", endAt)
	return auction, nil
}

// ListPublished returns the auctions currently open for bidding.
func (al *AuctionLifecycle) ListPublished(ctx context.Context) ([]*domain.Auction, error) {
	return al.auctionRepo.GetPublishedAuctions(ctx)
}

// PublishAuction moves a draft to published so it starts accepting bids.
func (al *AuctionLifecycle) PublishAuction(ctx context.Context, auctionID string) error {
	auction, err := al.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("loading auction %s: %w", auctionID, err)
	}
	if auction.Status != domain.AuctionDraft {
		return nil
	}

	if err := al.auctionRepo.UpdateAuctionStatus(ctx, auctionID, domain.AuctionPublished); err != nil {
		return err
	}

	al.log.Info("Auction published", "auction_id", auctionID)
	return al.stateCache.SetAuctionStatus(ctx, auctionID, domain.AuctionPublished)
}

// EndAuction closes a published auction: it takes the auction lock so a
// close cannot interleave with a bid commit, resolves the winner,
// deactivates the auction's auto-bids, and publishes auction.ended.
func (al *AuctionLifecycle) EndAuction(ctx context.Context, auctionID string) error {
	// ErrBusy here is harmless: the end job stays pending and the next
	// tick retries.
	release, err := al.locks.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	// Defers run LIFO: Forget fires after release so it sees the lock
	// free and actually drops the entry.
	ended := false
	defer func() {
		if ended {
			al.locks.Forget(auctionID)
		}
	}()
	defer release()

	auction, err := al.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("loading auction %s: %w", auctionID, err)
	}
	if auction.Status != domain.AuctionPublished {
		return nil
	}
	if time.Now().Before(auction.EndAt) {
		// Soft close moved the clock after this job was scheduled.
		return al.scheduler.RescheduleEnd(ctx, auctionID, auction.EndAt)
	}

	// The winner comes from the ledger, not the current_bidder_id
	// projection, and only when the reserve is met or absent.
	highest, err := al.bidRepo.GetHighestBid(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("resolving highest bid for auction %s: %w", auctionID, err)
	}
	if highest != nil && domain.ReserveStateOf(highest.Amount, auction.ReservePrice) != domain.ReserveNotMet {
		if err := al.auctionRepo.SetWinner(ctx, auctionID, highest.BidderID); err != nil {
			return fmt.Errorf("setting winner for auction %s: %w", auctionID, err)
		}
		auction.WinningBidderID = highest.BidderID
	}

	if err := al.auctionRepo.UpdateAuctionStatus(ctx, auctionID, domain.AuctionEnded); err != nil {
		return err
	}
	if err := al.stateCache.SetAuctionStatus(ctx, auctionID, domain.AuctionEnded); err != nil {
		al.log.Error("Failed to cache auction status", "auction_id", auctionID, "error", err)
	}

	if err := al.autoBidRepo.DeactivateForAuction(ctx, auctionID); err != nil {
		al.log.Error("Failed to deactivate auto-bids", "auction_id", auctionID, "error", err)
	}

	if err := al.scheduler.CancelSchedule(ctx, auctionID); err != nil {
		al.log.Error("Failed to cancel scheduled jobs", "auction_id", auctionID, "error", err)
	}

	if err := al.eventPub.PublishAuctionEvent(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionEnded,
		AuctionID: auctionID,
		BidderID:  auction.CurrentBidderID,
		Timestamp: time.Now(),
	}); err != nil {
		al.log.Error("Failed to publish auction.ended", "auction_id", auctionID, "error", err)
	}

	ended = true

	al.log.Info("Auction ended", "auction_id", auctionID,
		"final_price", auction.CurrentPrice, "winner", auction.WinningBidderID,
		"reserve_state", auction.ReserveState())
	return nil
}
