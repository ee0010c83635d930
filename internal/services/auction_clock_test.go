package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vehicle-auction/internal/domain"
)

func TestAuctionClock_ExtendsInsideWindow(t *testing.T) {
	clock := NewAuctionClock(2*time.Minute, 2*time.Minute)
	now := time.Now()
	auction := &domain.Auction{EndAt: now.Add(90 * time.Second)}

	extended := clock.OnBidAccepted(auction, now)

	require.True(t, extended)
	require.Equal(t, now.Add(2*time.Minute), auction.EndAt)
	require.Equal(t, 1, auction.ExtensionCount)
}

func TestAuctionClock_NoExtensionOutsideWindow(t *testing.T) {
	clock := NewAuctionClock(2*time.Minute, 2*time.Minute)
	now := time.Now()
	endAt := now.Add(10 * time.Minute)
	auction := &domain.Auction{EndAt: endAt}

	extended := clock.OnBidAccepted(auction, now)

	require.False(t, extended)
	require.Equal(t, endAt, auction.EndAt)
	require.Equal(t, 0, auction.ExtensionCount)
}

func TestAuctionClock_WindowBoundaryExtends(t *testing.T) {
	clock := NewAuctionClock(2*time.Minute, 2*time.Minute)
	now := time.Now()
	auction := &domain.Auction{EndAt: now.Add(2 * time.Minute)}

	require.True(t, clock.OnBidAccepted(auction, now))
}

func TestAuctionClock_ExpiredClockNeverExtends(t *testing.T) {
	clock := NewAuctionClock(2*time.Minute, 2*time.Minute)
	now := time.Now()
	auction := &domain.Auction{EndAt: now.Add(-time.Second)}

	require.False(t, clock.OnBidAccepted(auction, now))
	require.Equal(t, 0, auction.ExtensionCount)
}

// Extensions are unbounded: every qualifying bid moves the clock again.
func TestAuctionClock_RepeatedExtensions(t *testing.T) {
	clock := NewAuctionClock(2*time.Minute, 2*time.Minute)
	now := time.Now()
	auction := &domain.Auction{EndAt: now.Add(time.Minute)}

	for i := 1; i <= 5; i++ {
		require.True(t, clock.OnBidAccepted(auction, now))
		require.Equal(t, i, auction.ExtensionCount)
		require.Equal(t, now.Add(2*time.Minute), auction.EndAt)
		// Next bid lands a minute later, back inside the window.
		now = now.Add(time.Minute)
	}
}
