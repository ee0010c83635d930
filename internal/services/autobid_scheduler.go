package services

import (
	"context"
	"errors"
	"time"

	"vehicle-auction/internal/api/metrics"
	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
	"vehicle-auction/pkg/utils"
)

// ProxyBidScheduler executes standing auto-bids on behalf of their
// owners. Every submission goes through BidService.SubmitBid with
// origin=proxy, so proxy bids obey exactly the same validation and
// per-auction serialization as live traffic. It runs on the scheduler
// tick and is also kicked synchronously after each accepted bid so
// incremental strategies react without waiting for the next tick.
type ProxyBidScheduler struct {
	autoBidRepo domain.AutoBidRepository
	auctionRepo domain.AuctionRepository
	bids        *BidService
	ladder      *IncrementLadder
	auditRepo   domain.AuditRepository
	notifier    domain.UserNotifier
	now         func() time.Time
	log         logger.Logger
}

func NewProxyBidScheduler(
	autoBidRepo domain.AutoBidRepository,
	auctionRepo domain.AuctionRepository,
	bids *BidService,
	ladder *IncrementLadder,
	auditRepo domain.AuditRepository,
	notifier domain.UserNotifier,
	log logger.Logger,
) *ProxyBidScheduler {
	return &ProxyBidScheduler{
		autoBidRepo: autoBidRepo,
		auctionRepo: auctionRepo,
		bids:        bids,
		ladder:      ladder,
		auditRepo:   auditRepo,
		notifier:    notifier,
		now:         time.Now,
		log:         log,
	}
}

// SetNowFunc overrides the clock source. Used in tests.
func (p *ProxyBidScheduler) SetNowFunc(now func() time.Time) {
	p.now = now
}

// Tick scans every active auto-bid, grouped per auction. A failure on
// one auction never blocks the others; its auto-bids are retried on the
// next tick.
func (p *ProxyBidScheduler) Tick(ctx context.Context) {
	autoBids, err := p.autoBidRepo.GetActiveAutoBids(ctx)
	if err != nil {
		p.log.Error("Failed to load active auto-bids", "error", err)
		return
	}

	byAuction := make(map[string][]*domain.AutoBid)
	for _, ab := range autoBids {
		byAuction[ab.AuctionID] = append(byAuction[ab.AuctionID], ab)
	}

	for auctionID, abs := range byAuction {
		p.runForAuction(ctx, auctionID, abs)
	}
}

// TriggerForAuction runs the incremental pass for one auction. Called
// asynchronously right after a bid commit; snipes stay on the tick
// schedule since their trigger is time, not price.
func (p *ProxyBidScheduler) TriggerForAuction(ctx context.Context, auctionID string) {
	autoBids, err := p.autoBidRepo.GetActiveForAuction(ctx, auctionID)
	if err != nil {
		p.log.Error("Failed to load auto-bids for auction", "auction_id", auctionID, "error", err)
		return
	}

	auction, err := p.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		p.log.Error("Failed to load auction", "auction_id", auctionID, "error", err)
		return
	}
	if !auction.AcceptingBids(p.now()) {
		return
	}

	for _, ab := range autoBids {
		if ab.Strategy == domain.StrategyIncremental {
			p.runIncremental(ctx, auction, ab)
		}
	}
}

func (p *ProxyBidScheduler) runForAuction(ctx context.Context, auctionID string, autoBids []*domain.AutoBid) {
	auction, err := p.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		p.log.Error("Failed to load auction", "auction_id", auctionID, "error", err)
		return
	}
	if !auction.AcceptingBids(p.now()) {
		// The end job retires these auto-bids; nothing to do here.
		return
	}

	for _, ab := range autoBids {
		switch ab.Strategy {
		case domain.StrategySnipe:
			p.runSnipe(ctx, auction, ab)
		case domain.StrategyIncremental:
			p.runIncremental(ctx, auction, ab)
		}
	}
}

// runSnipe fires at most once per auto-bid: has_executed flips before
// the submission so a crash or race can never produce a second shot.
func (p *ProxyBidScheduler) runSnipe(ctx context.Context, auction *domain.Auction, ab *domain.AutoBid) {
	if ab.HasExecuted {
		return
	}

	now := p.now()
	trigger := time.Duration(ab.TriggerMinutes) * time.Minute
	if auction.EndAt.Sub(now) > trigger {
		return
	}

	minimum := p.ladder.MinimumBid(auction.CurrentPrice)
	if minimum > ab.MaxAmount {
		// Priced out before firing: consume the shot without bidding.
		p.exhaust(ctx, ab, minimum)
		if err := p.autoBidRepo.MarkExecuted(ctx, ab.ID, now); err != nil {
			p.log.Error("Failed to mark snipe executed", "autobid_id", ab.ID, "error", err)
		}
		return
	}

	if err := p.autoBidRepo.MarkExecuted(ctx, ab.ID, now); err != nil {
		p.log.Error("Failed to mark snipe executed", "autobid_id", ab.ID, "error", err)
		return
	}
	ab.HasExecuted = true

	_, err := p.bids.SubmitBid(ctx, auction.ID, ab.UserID, minimum, domain.OriginProxy)
	if err != nil {
		// The shot is spent either way: at-most-once execution.
		metrics.ProxyExecutionsTotal.WithLabelValues(string(domain.StrategySnipe), "rejected").Inc()
		p.log.Info("Snipe bid rejected", "autobid_id", ab.ID, "auction_id", auction.ID,
			"amount", minimum, "kind", domain.ErrorKind(err))
		return
	}

	metrics.ProxyExecutionsTotal.WithLabelValues(string(domain.StrategySnipe), "accepted").Inc()
	p.log.Info("Snipe bid placed", "autobid_id", ab.ID, "auction_id", auction.ID, "amount", minimum)
}

func (p *ProxyBidScheduler) runIncremental(ctx context.Context, auction *domain.Auction, ab *domain.AutoBid) {
	if auction.CurrentBidderID == ab.UserID {
		return
	}

	minimum := p.ladder.MinimumBid(auction.CurrentPrice)
	if minimum > ab.MaxAmount {
		p.exhaust(ctx, ab, minimum)
		return
	}

	amount := minimum + ab.IncrementAmount
	if amount > ab.MaxAmount {
		amount = ab.MaxAmount
	}

	_, err := p.bids.SubmitBid(ctx, auction.ID, ab.UserID, amount, domain.OriginProxy)
	switch {
	case err == nil:
		metrics.ProxyExecutionsTotal.WithLabelValues(string(domain.StrategyIncremental), "accepted").Inc()
		if err := p.autoBidRepo.RecordExecution(ctx, ab.ID, p.now()); err != nil {
			p.log.Error("Failed to record auto-bid execution", "autobid_id", ab.ID, "error", err)
		}
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrBidTooLow):
		// Lost a race with live traffic; the price moved, so the next
		// tick (or post-commit trigger) re-evaluates against it.
		metrics.ProxyExecutionsTotal.WithLabelValues(string(domain.StrategyIncremental), "rejected").Inc()
	default:
		metrics.ProxyExecutionsTotal.WithLabelValues(string(domain.StrategyIncremental), "rejected").Inc()
		p.log.Error("Incremental bid failed", "autobid_id", ab.ID, "auction_id", auction.ID,
			"amount", amount, "error", err)
	}
}

// exhaust deactivates an auto-bid whose ceiling can no longer produce a
// legal bid, rather than retrying it forever, and tells the owner. The
// audit log gets a rejection entry carrying the ceiling that fell short.
func (p *ProxyBidScheduler) exhaust(ctx context.Context, ab *domain.AutoBid, minimum float64) {
	if err := p.autoBidRepo.Deactivate(ctx, ab.ID); err != nil {
		p.log.Error("Failed to deactivate auto-bid", "autobid_id", ab.ID, "error", err)
		return
	}
	ab.IsActive = false

	if err := p.auditRepo.Record(ctx, &domain.AuditEntry{
		ID:        utils.GenerateID("audit"),
		AuctionID: ab.AuctionID,
		BidderID:  ab.UserID,
		Amount:    ab.MaxAmount,
		Origin:    domain.OriginProxy,
		Outcome:   domain.AuditRejected,
		Kind:      domain.KindAutoBidExceedsCapacity,
		CreatedAt: p.now(),
	}); err != nil {
		p.log.Error("Failed to record audit entry", "autobid_id", ab.ID, "error", err)
	}

	metrics.ProxyExecutionsTotal.WithLabelValues(string(ab.Strategy), "exhausted").Inc()
	p.log.Info("Auto-bid exhausted", "autobid_id", ab.ID, "auction_id", ab.AuctionID,
		"max_amount", ab.MaxAmount, "minimum_bid", minimum)

	if err := p.notifier.NotifyUser(ctx, ab.UserID, map[string]interface{}{
		"type":        "auto_bid_deactivated",
		"kind":        domain.KindAutoBidExceedsCapacity,
		"auction_id":  ab.AuctionID,
		"max_amount":  ab.MaxAmount,
		"minimum_bid": minimum,
	}); err != nil {
		p.log.Error("Failed to notify auto-bid owner", "autobid_id", ab.ID, "error", err)
	}
}
