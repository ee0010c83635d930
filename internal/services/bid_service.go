package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-auction/internal/api/metrics"
	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
	"vehicle-auction/pkg/utils"
)

// BidService is the single gate every bid passes through. Human
// submissions and scheduler-driven proxy submissions enter the same
// SubmitBid path, so validation invariants cannot diverge between the
// two origins. It is the only writer of an auction's current price and
// clock.
type BidService struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	auditRepo   domain.AuditRepository
	stateCache  domain.AuctionStateCache
	eventPub    domain.EventPublisher
	scheduler   domain.AuctionScheduler
	ladder      *IncrementLadder
	clock       *AuctionClock
	locks       *AuctionLocks

	allowSellerBids bool
	onBidAccepted   func(auctionID string)
	now             func() time.Time
	log             logger.Logger
}

func NewBidService(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	auditRepo domain.AuditRepository,
	stateCache domain.AuctionStateCache,
	eventPub domain.EventPublisher,
	ladder *IncrementLadder,
	clock *AuctionClock,
	locks *AuctionLocks,
	allowSellerBids bool,
	log logger.Logger,
) *BidService {
	return &BidService{
		auctionRepo:     auctionRepo,
		bidRepo:         bidRepo,
		auditRepo:       auditRepo,
		stateCache:      stateCache,
		eventPub:        eventPub,
		ladder:          ladder,
		clock:           clock,
		locks:           locks,
		allowSellerBids: allowSellerBids,
		now:             time.Now,
		log:             log,
	}
}

// SetScheduler breaks the construction cycle with the cron scheduler,
// whose proxy bid pass submits through this service.
func (s *BidService) SetScheduler(scheduler domain.AuctionScheduler) {
	s.scheduler = scheduler
}

// SetOnBidAccepted registers the hook that reacts to committed bids,
// used to run competing incremental auto-bids right away instead of
// waiting for the next scheduler tick. The hook runs on its own
// goroutine after the per-auction lock is released.
func (s *BidService) SetOnBidAccepted(hook func(auctionID string)) {
	s.onBidAccepted = hook
}

// SetNowFunc overrides the clock source. Used in tests.
func (s *BidService) SetNowFunc(now func() time.Time) {
	s.now = now
}

// SubmitBid validates and commits one bid under the auction's lock.
// On success it returns the updated snapshot; on failure it records an
// audit rejection and returns an error discriminated by kind. No bid
// row is ever written for a rejection.
func (s *BidService) SubmitBid(ctx context.Context, auctionID, bidderID string, amount float64, origin domain.BidOrigin) (*domain.BidSnapshot, error) {
	start := s.now()
	defer func() {
		metrics.BidProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	s.log.Debug("Bid submitted", "auction_id", auctionID, "bidder_id", bidderID,
		"amount", amount, "origin", origin)

	// Ended is terminal and cached at close, so a hit here skips the
	// lock and the database round trip. Anything else, including a
	// cache miss or error, falls through to the authoritative row.
	if status, cacheErr := s.stateCache.GetAuctionStatus(ctx, auctionID); cacheErr == nil && status == domain.AuctionEnded {
		return nil, s.reject(ctx, auctionID, bidderID, amount, origin, domain.ErrAuctionNotAcceptingBids)
	}

	release, err := s.locks.Acquire(ctx, auctionID)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			return nil, s.reject(ctx, auctionID, bidderID, amount, origin, domain.ErrBusy)
		}
		return nil, err
	}
	defer release()

	auction, err := s.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("loading auction %s: %w", auctionID, err)
	}

	now := s.now()

	if !auction.AcceptingBids(now) {
		return nil, s.reject(ctx, auctionID, bidderID, amount, origin, domain.ErrAuctionNotAcceptingBids)
	}

	minimum := s.ladder.MinimumBid(auction.CurrentPrice)
	if amount < minimum {
		return nil, s.reject(ctx, auctionID, bidderID, amount, origin,
			fmt.Errorf("%w: minimum bid is %.2f", domain.ErrBidTooLow, minimum))
	}

	if bidderID == auction.SellerID && !s.allowSellerBids {
		return nil, s.reject(ctx, auctionID, bidderID, amount, origin, domain.ErrSelfBidNotAllowed)
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Origin:    origin,
		CreatedAt: now,
	}

	extended := s.clock.OnBidAccepted(auction, now)
	auction.CurrentPrice = amount
	auction.CurrentBidderID = bidderID
	auction.UpdatedAt = now

	if err := s.bidRepo.Append(ctx, auction, bid); err != nil {
		return nil, fmt.Errorf("committing bid %s: %w", bid.ID, err)
	}

	s.audit(ctx, &domain.AuditEntry{
		ID:        utils.GenerateID("audit"),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Origin:    origin,
		Outcome:   domain.AuditAccepted,
		CreatedAt: now,
	})
	metrics.BidsAcceptedTotal.WithLabelValues(string(origin)).Inc()

	if extended {
		metrics.AuctionExtensionsTotal.Inc()
		if err := s.scheduler.RescheduleEnd(ctx, auctionID, auction.EndAt); err != nil {
			s.log.Error("Failed to reschedule auction end", "auction_id", auctionID, "error", err)
		}
	}

	s.publishAfterCommit(auction, bid, extended, now)

	if s.onBidAccepted != nil {
		go s.onBidAccepted(auctionID)
	}

	s.log.Info("Bid accepted", "auction_id", auctionID, "bidder_id", bidderID,
		"amount", amount, "origin", origin, "extended", extended)

	return &domain.BidSnapshot{
		AuctionID:      auctionID,
		CurrentPrice:   auction.CurrentPrice,
		MinimumBid:     s.ladder.MinimumBid(auction.CurrentPrice),
		EndAt:          auction.EndAt,
		ExtensionCount: auction.ExtensionCount,
		ReserveState:   auction.ReserveState(),
	}, nil
}

// GetSnapshot returns the bidder-facing view of an auction.
func (s *BidService) GetSnapshot(ctx context.Context, auctionID string) (*domain.BidSnapshot, error) {
	auction, err := s.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("loading auction %s: %w", auctionID, err)
	}

	return &domain.BidSnapshot{
		AuctionID:      auctionID,
		CurrentPrice:   auction.CurrentPrice,
		MinimumBid:     s.ladder.MinimumBid(auction.CurrentPrice),
		EndAt:          auction.EndAt,
		ExtensionCount: auction.ExtensionCount,
		ReserveState:   auction.ReserveState(),
	}, nil
}

// History returns the append-only bid sequence for an auction, oldest
// first.
func (s *BidService) History(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if _, err := s.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("loading auction %s: %w", auctionID, err)
	}
	return s.bidRepo.GetBidHistory(ctx, auctionID)
}

// AuditTrail returns every recorded attempt against an auction,
// accepted and rejected, for dispute resolution.
func (s *BidService) AuditTrail(ctx context.Context, auctionID string) ([]*domain.AuditEntry, error) {
	if _, err := s.auctionRepo.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("loading auction %s: %w", auctionID, err)
	}
	return s.auditRepo.ListForAuction(ctx, auctionID)
}

// MinimumBid exposes the ladder for callers that quote before bidding.
func (s *BidService) MinimumBid(currentPrice float64) float64 {
	return s.ladder.MinimumBid(currentPrice)
}

// publishAfterCommit fans events out without ever blocking the bid
// path: publish failures are logged and the committed state stands.
func (s *BidService) publishAfterCommit(auction *domain.Auction, bid *domain.Bid, extended bool, now time.Time) {
	events := []*domain.AuctionEvent{{
		Type:         domain.EventBidPlaced,
		AuctionID:    auction.ID,
		BidderID:     bid.BidderID,
		CurrentPrice: auction.CurrentPrice,
		EndAt:        auction.EndAt,
		Timestamp:    now,
	}}
	if extended {
		events = append(events, &domain.AuctionEvent{
			Type:           domain.EventAuctionExtended,
			AuctionID:      auction.ID,
			EndAt:          auction.EndAt,
			ExtensionCount: auction.ExtensionCount,
			Timestamp:      now,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, event := range events {
			if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
				s.log.Error("Failed to publish event", "type", event.Type,
					"auction_id", event.AuctionID, "error", err)
			}
		}
	}()
}

func (s *BidService) reject(ctx context.Context, auctionID, bidderID string, amount float64, origin domain.BidOrigin, cause error) error {
	kind := domain.ErrorKind(cause)

	s.audit(ctx, &domain.AuditEntry{
		ID:        utils.GenerateID("audit"),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Origin:    origin,
		Outcome:   domain.AuditRejected,
		Kind:      kind,
		CreatedAt: s.now(),
	})
	metrics.BidsRejectedTotal.WithLabelValues(kind, string(origin)).Inc()

	s.log.Info("Bid rejected", "auction_id", auctionID, "bidder_id", bidderID,
		"amount", amount, "origin", origin, "kind", kind)

	return cause
}

func (s *BidService) audit(ctx context.Context, entry *domain.AuditEntry) {
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		// The bid outcome stands even when the audit write fails.
		s.log.Error("Failed to record audit entry", "auction_id", entry.AuctionID,
			"outcome", entry.Outcome, "error", err)
	}
}
