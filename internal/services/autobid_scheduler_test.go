package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vehicle-auction/internal/config"
	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
)

type proxyFixture struct {
	*bidFixture
	autoBidRepo *mockAutoBidRepo
	notifier    *mockNotifier
	proxy       *ProxyBidScheduler
}

func newProxyFixture(t *testing.T) *proxyFixture {
	t.Helper()

	bf := newBidFixture(t, false)
	ladder, err := NewIncrementLadder(config.DefaultLadder())
	require.NoError(t, err)

	autoBidRepo := newMockAutoBidRepo()
	notifier := newMockNotifier()

	proxy := NewProxyBidScheduler(
		autoBidRepo,
		&mockAuctionRepo{store: bf.store},
		bf.service,
		ladder,
		bf.auditRepo,
		notifier,
		logger.NewNop(),
	)

	return &proxyFixture{
		bidFixture:  bf,
		autoBidRepo: autoBidRepo,
		notifier:    notifier,
		proxy:       proxy,
	}
}

func snipeAutoBid(id, auctionID, userID string, maxAmount float64, triggerMinutes int) *domain.AutoBid {
	return &domain.AutoBid{
		ID:             id,
		AuctionID:      auctionID,
		UserID:         userID,
		MaxAmount:      maxAmount,
		Strategy:       domain.StrategySnipe,
		TriggerMinutes: triggerMinutes,
		IsActive:       true,
	}
}

func incrementalAutoBid(id, auctionID, userID string, maxAmount, increment float64) *domain.AutoBid {
	return &domain.AutoBid{
		ID:              id,
		AuctionID:       auctionID,
		UserID:          userID,
		MaxAmount:       maxAmount,
		Strategy:        domain.StrategyIncremental,
		IncrementAmount: increment,
		IsActive:        true,
	}
}

func TestSnipe_FiresInsideTriggerWindow(t *testing.T) {
	f := newProxyFixture(t)
	f.addAuction(publishedAuction("auction-1", 1_000, 5*time.Minute))
	require.NoError(t, f.autoBidRepo.Create(context.Background(), snipeAutoBid("ab-1", "auction-1", "user-a", 5_000, 10)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, "user-a", bids[0].BidderID)
	require.Equal(t, 1_010.0, bids[0].Amount, "snipe bids the ladder minimum")
	require.Equal(t, domain.OriginProxy, bids[0].Origin)

	ab, err := f.autoBidRepo.GetByID(context.Background(), "ab-1")
	require.NoError(t, err)
	require.True(t, ab.HasExecuted)
	require.NotNil(t, ab.LastExecutedAt)
}

func TestSnipe_WaitsOutsideTriggerWindow(t *testing.T) {
	f := newProxyFixture(t)
	f.addAuction(publishedAuction("auction-1", 1_000, time.Hour))
	require.NoError(t, f.autoBidRepo.Create(context.Background(), snipeAutoBid("ab-1", "auction-1", "user-a", 5_000, 10)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Empty(t, bids)

	ab, err := f.autoBidRepo.GetByID(context.Background(), "ab-1")
	require.NoError(t, err)
	require.False(t, ab.HasExecuted)
}

func TestSnipe_FiresAtMostOnce(t *testing.T) {
	f := newProxyFixture(t)
	f.addAuction(publishedAuction("auction-1", 1_000, 5*time.Minute))
	require.NoError(t, f.autoBidRepo.Create(context.Background(), snipeAutoBid("ab-1", "auction-1", "user-a", 5_000, 10)))

	for i := 0; i < 5; i++ {
		f.proxy.Tick(context.Background())
	}

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestSnipe_PricedOutConsumesShot(t *testing.T) {
	f := newProxyFixture(t)
	f.addAuction(publishedAuction("auction-1", 10_000, 5*time.Minute))
	// Minimum is 10,250; the ceiling cannot reach it.
	require.NoError(t, f.autoBidRepo.Create(context.Background(), snipeAutoBid("ab-1", "auction-1", "user-a", 10_100, 10)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Empty(t, bids)

	ab, err := f.autoBidRepo.GetByID(context.Background(), "ab-1")
	require.NoError(t, err)
	require.False(t, ab.IsActive)
	require.True(t, ab.HasExecuted)
	require.Equal(t, 1, f.notifier.notified("user-a"))

	rejected := f.auditRepo.byOutcome(domain.AuditRejected)
	require.Len(t, rejected, 1)
	require.Equal(t, domain.KindAutoBidExceedsCapacity, rejected[0].Kind)
	require.Equal(t, 10_100.0, rejected[0].Amount)
}

func TestIncremental_OutbidsCompetitor(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 1_000, time.Hour)
	auction.CurrentBidderID = "rival"
	f.addAuction(auction)
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-1", "auction-1", "user-a", 2_000, 50)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, 1_060.0, bids[0].Amount, "minimum 1010 plus increment 50")

	ab, err := f.autoBidRepo.GetByID(context.Background(), "ab-1")
	require.NoError(t, err)
	require.True(t, ab.IsActive)
	require.NotNil(t, ab.LastExecutedAt)
}

func TestIncremental_SkipsWhenAlreadyHighest(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 1_000, time.Hour)
	auction.CurrentBidderID = "user-a"
	f.addAuction(auction)
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-1", "auction-1", "user-a", 2_000, 50)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Empty(t, bids, "never outbids itself")
}

func TestIncremental_CapsAtMaxAmount(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 1_000, time.Hour)
	auction.CurrentBidderID = "rival"
	f.addAuction(auction)
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-1", "auction-1", "user-a", 1_040, 100)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, 1_040.0, bids[0].Amount, "clamped to the ceiling")
}

func TestIncremental_ExhaustedDeactivatesAndNotifies(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 2_000, time.Hour)
	auction.CurrentBidderID = "rival"
	f.addAuction(auction)
	// Minimum is 2,100; the ceiling is below it.
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-1", "auction-1", "user-a", 2_050, 100)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Empty(t, bids)

	ab, err := f.autoBidRepo.GetByID(context.Background(), "ab-1")
	require.NoError(t, err)
	require.False(t, ab.IsActive)
	require.Equal(t, 1, f.notifier.notified("user-a"))

	rejected := f.auditRepo.byOutcome(domain.AuditRejected)
	require.Len(t, rejected, 1)
	require.Equal(t, domain.KindAutoBidExceedsCapacity, rejected[0].Kind)

	// Once deactivated the config never fires again.
	f.proxy.Tick(context.Background())
	require.Equal(t, 1, f.notifier.notified("user-a"))
}

func TestProxy_IgnoresEndedAuction(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 1_000, -time.Minute)
	f.addAuction(auction)
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-1", "auction-1", "user-a", 2_000, 50)))

	f.proxy.Tick(context.Background())

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Empty(t, bids)
}

func TestTriggerForAuction_RunsIncrementalOnly(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 1_000, 5*time.Minute)
	auction.CurrentBidderID = "rival"
	f.addAuction(auction)
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-1", "auction-1", "user-a", 2_000, 50)))
	require.NoError(t, f.autoBidRepo.Create(context.Background(), snipeAutoBid("ab-2", "auction-1", "user-b", 5_000, 10)))

	f.proxy.TriggerForAuction(context.Background(), "auction-1")

	bids, err := f.bidRepo.GetBidHistory(context.Background(), "auction-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, "user-a", bids[0].BidderID)

	// Snipes stay on the tick schedule.
	ab, err := f.autoBidRepo.GetByID(context.Background(), "ab-2")
	require.NoError(t, err)
	require.False(t, ab.HasExecuted)
}

// Two incremental configs against each other: the ticks converge on the
// higher ceiling winning, with the lower one retired.
func TestIncremental_DuelConverges(t *testing.T) {
	f := newProxyFixture(t)
	auction := publishedAuction("auction-1", 1_000, time.Hour)
	auction.CurrentBidderID = "rival"
	f.addAuction(auction)
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-low", "auction-1", "user-a", 1_500, 100)))
	require.NoError(t, f.autoBidRepo.Create(context.Background(), incrementalAutoBid("ab-high", "auction-1", "user-b", 3_000, 100)))

	for i := 0; i < 50; i++ {
		f.proxy.Tick(context.Background())
	}

	low, err := f.autoBidRepo.GetByID(context.Background(), "ab-low")
	require.NoError(t, err)
	require.False(t, low.IsActive, "lower ceiling exhausts")

	stored, ok := f.store.get("auction-1")
	require.True(t, ok)
	require.Equal(t, "user-b", stored.CurrentBidderID)
	require.Greater(t, stored.CurrentPrice, 1_500.0)
	require.LessOrEqual(t, stored.CurrentPrice, 3_000.0)
}
