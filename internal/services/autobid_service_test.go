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

func newAutoBidService(t *testing.T, store *memStore) (*AutoBidService, *mockAutoBidRepo) {
	t.Helper()

	ladder, err := NewIncrementLadder(config.DefaultLadder())
	require.NoError(t, err)

	repo := newMockAutoBidRepo()
	svc := NewAutoBidService(repo, &mockAuctionRepo{store: store}, ladder, logger.NewNop())
	return svc, repo
}

func TestCreateAutoBid(t *testing.T) {
	store := newMemStore()
	store.put(publishedAuction("auction-1", 10_000, time.Hour))
	svc, _ := newAutoBidService(t, store)

	ab, err := svc.CreateAutoBid(context.Background(), "user-a", AutoBidParams{
		AuctionID:      "auction-1",
		MaxAmount:      20_000,
		Strategy:       domain.StrategySnipe,
		TriggerMinutes: 5,
	})
	require.NoError(t, err)
	require.True(t, ab.IsActive)
	require.False(t, ab.HasExecuted)
	require.NotEmpty(t, ab.ID)
}

func TestCreateAutoBid_Validation(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		params  AutoBidParams
		wantErr error
	}{
		{
			name:   "max_not_above_current_price",
			userID: "user-a",
			params: AutoBidParams{
				AuctionID: "auction-1", MaxAmount: 10_000,
				Strategy: domain.StrategySnipe, TriggerMinutes: 5,
			},
			wantErr: domain.ErrInvalidAutoBidConfig,
		},
		{
			name:   "snipe_trigger_below_one_minute",
			userID: "user-a",
			params: AutoBidParams{
				AuctionID: "auction-1", MaxAmount: 20_000,
				Strategy: domain.StrategySnipe, TriggerMinutes: 0,
			},
			wantErr: domain.ErrInvalidAutoBidConfig,
		},
		{
			name:   "incremental_without_increment",
			userID: "user-a",
			params: AutoBidParams{
				AuctionID: "auction-1", MaxAmount: 20_000,
				Strategy: domain.StrategyIncremental,
			},
			wantErr: domain.ErrInvalidAutoBidConfig,
		},
		{
			name:   "unknown_strategy",
			userID: "user-a",
			params: AutoBidParams{
				AuctionID: "auction-1", MaxAmount: 20_000,
				Strategy: "martingale",
			},
			wantErr: domain.ErrInvalidAutoBidConfig,
		},
		{
			name:   "seller_cannot_autobid_own_listing",
			userID: "seller-1",
			params: AutoBidParams{
				AuctionID: "auction-1", MaxAmount: 20_000,
				Strategy: domain.StrategySnipe, TriggerMinutes: 5,
			},
			wantErr: domain.ErrInvalidAutoBidConfig,
		},
		{
			name:   "unknown_auction",
			userID: "user-a",
			params: AutoBidParams{
				AuctionID: "missing", MaxAmount: 20_000,
				Strategy: domain.StrategySnipe, TriggerMinutes: 5,
			},
			wantErr: domain.ErrAuctionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.put(publishedAuction("auction-1", 10_000, time.Hour))
			svc, _ := newAutoBidService(t, store)

			_, err := svc.CreateAutoBid(context.Background(), tt.userID, tt.params)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateAutoBid_EndedAuction(t *testing.T) {
	store := newMemStore()
	auction := publishedAuction("auction-1", 10_000, time.Hour)
	auction.Status = domain.AuctionEnded
	store.put(auction)
	svc, _ := newAutoBidService(t, store)

	_, err := svc.CreateAutoBid(context.Background(), "user-a", AutoBidParams{
		AuctionID: "auction-1", MaxAmount: 20_000,
		Strategy: domain.StrategySnipe, TriggerMinutes: 5,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAutoBidConfig)
}

func TestCreateAutoBid_OnePerUserPerAuction(t *testing.T) {
	store := newMemStore()
	store.put(publishedAuction("auction-1", 10_000, time.Hour))
	svc, _ := newAutoBidService(t, store)

	params := AutoBidParams{
		AuctionID: "auction-1", MaxAmount: 20_000,
		Strategy: domain.StrategySnipe, TriggerMinutes: 5,
	}
	_, err := svc.CreateAutoBid(context.Background(), "user-a", params)
	require.NoError(t, err)

	_, err = svc.CreateAutoBid(context.Background(), "user-a", params)
	require.ErrorIs(t, err, domain.ErrAutoBidExists)

	// A different user on the same auction is fine.
	_, err = svc.CreateAutoBid(context.Background(), "user-b", params)
	require.NoError(t, err)
}

func TestUpdateAutoBid(t *testing.T) {
	store := newMemStore()
	store.put(publishedAuction("auction-1", 10_000, time.Hour))
	svc, repo := newAutoBidService(t, store)

	created, err := svc.CreateAutoBid(context.Background(), "user-a", AutoBidParams{
		AuctionID: "auction-1", MaxAmount: 20_000,
		Strategy: domain.StrategySnipe, TriggerMinutes: 5,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateAutoBid(context.Background(), "user-a", created.ID, AutoBidParams{
		MaxAmount: 30_000,
		Strategy:  domain.StrategyIncremental, IncrementAmount: 500,
	})
	require.NoError(t, err)
	require.Equal(t, 30_000.0, updated.MaxAmount)
	require.Equal(t, domain.StrategyIncremental, updated.Strategy)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 30_000.0, stored.MaxAmount)
}

func TestUpdateAutoBid_OwnerScoped(t *testing.T) {
	store := newMemStore()
	store.put(publishedAuction("auction-1", 10_000, time.Hour))
	svc, _ := newAutoBidService(t, store)

	created, err := svc.CreateAutoBid(context.Background(), "user-a", AutoBidParams{
		AuctionID: "auction-1", MaxAmount: 20_000,
		Strategy: domain.StrategySnipe, TriggerMinutes: 5,
	})
	require.NoError(t, err)

	// Another user's config reads as not found, not forbidden.
	_, err = svc.UpdateAutoBid(context.Background(), "user-b", created.ID, AutoBidParams{
		MaxAmount: 30_000,
		Strategy:  domain.StrategySnipe, TriggerMinutes: 5,
	})
	require.ErrorIs(t, err, domain.ErrAutoBidNotFound)
}

func TestDeleteAutoBid(t *testing.T) {
	store := newMemStore()
	store.put(publishedAuction("auction-1", 10_000, time.Hour))
	svc, repo := newAutoBidService(t, store)

	created, err := svc.CreateAutoBid(context.Background(), "user-a", AutoBidParams{
		AuctionID: "auction-1", MaxAmount: 20_000,
		Strategy: domain.StrategySnipe, TriggerMinutes: 5,
	})
	require.NoError(t, err)

	err = svc.DeleteAutoBid(context.Background(), "user-b", created.ID)
	require.ErrorIs(t, err, domain.ErrAutoBidNotFound)

	err = svc.DeleteAutoBid(context.Background(), "user-a", created.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), created.ID)
	require.ErrorIs(t, err, domain.ErrAutoBidNotFound)
}
