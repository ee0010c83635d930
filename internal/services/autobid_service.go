package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
	"vehicle-auction/pkg/utils"
)

// AutoBidParams is the caller-supplied configuration for a standing
// proxy bid.
type AutoBidParams struct {
	AuctionID       string
	MaxAmount       float64
	Strategy        domain.AutoBidStrategy
	TriggerMinutes  int
	IncrementAmount float64
}

// AutoBidService owns the AutoBid lifecycle on the user side: create,
// update, delete, always scoped to the owning user. One config per
// user per auction.
type AutoBidService struct {
	autoBidRepo domain.AutoBidRepository
	auctionRepo domain.AuctionRepository
	ladder      *IncrementLadder
	log         logger.Logger
}

func NewAutoBidService(
	autoBidRepo domain.AutoBidRepository,
	auctionRepo domain.AuctionRepository,
	ladder *IncrementLadder,
	log logger.Logger,
) *AutoBidService {
	return &AutoBidService{
		autoBidRepo: autoBidRepo,
		auctionRepo: auctionRepo,
		ladder:      ladder,
		log:         log,
	}
}

func (s *AutoBidService) CreateAutoBid(ctx context.Context, userID string, params AutoBidParams) (*domain.AutoBid, error) {
	auction, err := s.auctionRepo.GetAuction(ctx, params.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("loading auction %s: %w", params.AuctionID, err)
	}

	if err := s.validateParams(auction, userID, params, time.Now()); err != nil {
		return nil, err
	}

	existing, err := s.autoBidRepo.GetForUserAuction(ctx, userID, params.AuctionID)
	if err != nil && !errors.Is(err, domain.ErrAutoBidNotFound) {
		return nil, fmt.Errorf("checking existing auto-bid: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAutoBidExists
	}

	now := time.Now()
	autoBid := &domain.AutoBid{
		ID:              utils.GenerateID("autobid"),
		AuctionID:       params.AuctionID,
		UserID:          userID,
		MaxAmount:       params.MaxAmount,
		Strategy:        params.Strategy,
		TriggerMinutes:  params.TriggerMinutes,
		IncrementAmount: params.IncrementAmount,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.autoBidRepo.Create(ctx, autoBid); err != nil {
		return nil, fmt.Errorf("creating auto-bid: %w", err)
	}

	s.log.Info("Auto-bid created", "autobid_id", autoBid.ID, "auction_id", params.AuctionID,
		"user_id", userID, "strategy", params.Strategy, "max_amount", params.MaxAmount)
	return autoBid, nil
}

func (s *AutoBidService) UpdateAutoBid(ctx context.Context, userID, autoBidID string, params AutoBidParams) (*domain.AutoBid, error) {
	autoBid, err := s.autoBidRepo.GetByID(ctx, autoBidID)
	if err != nil {
		return nil, err
	}
	if autoBid.UserID != userID {
		return nil, domain.ErrAutoBidNotFound
	}

	auction, err := s.auctionRepo.GetAuction(ctx, autoBid.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("loading auction %s: %w", autoBid.AuctionID, err)
	}

	params.AuctionID = autoBid.AuctionID
	if err := s.validateParams(auction, userID, params, time.Now()); err != nil {
		return nil, err
	}

	autoBid.MaxAmount = params.MaxAmount
	autoBid.Strategy = params.Strategy
	autoBid.TriggerMinutes = params.TriggerMinutes
	autoBid.IncrementAmount = params.IncrementAmount
	autoBid.IsActive = true
	autoBid.UpdatedAt = time.Now()

	if err := s.autoBidRepo.Update(ctx, autoBid); err != nil {
		return nil, fmt.Errorf("updating auto-bid %s: %w", autoBidID, err)
	}

	s.log.Info("Auto-bid updated", "autobid_id", autoBidID, "user_id", userID)
	return autoBid, nil
}

func (s *AutoBidService) DeleteAutoBid(ctx context.Context, userID, autoBidID string) error {
	autoBid, err := s.autoBidRepo.GetByID(ctx, autoBidID)
	if err != nil {
		return err
	}
	if autoBid.UserID != userID {
		return domain.ErrAutoBidNotFound
	}

	if err := s.autoBidRepo.Delete(ctx, autoBidID); err != nil {
		return fmt.Errorf("deleting auto-bid %s: %w", autoBidID, err)
	}

	s.log.Info("Auto-bid deleted", "autobid_id", autoBidID, "user_id", userID)
	return nil
}

func (s *AutoBidService) validateParams(auction *domain.Auction, userID string, params AutoBidParams, now time.Time) error {
	if auction.Status == domain.AuctionEnded || (auction.Status == domain.AuctionPublished && !now.Before(auction.EndAt)) {
		return fmt.Errorf("%w: auction has ended", domain.ErrInvalidAutoBidConfig)
	}
	if userID == auction.SellerID {
		return fmt.Errorf("%w: sellers cannot auto-bid on their own listing", domain.ErrInvalidAutoBidConfig)
	}
	if params.MaxAmount <= auction.CurrentPrice {
		return fmt.Errorf("%w: max amount %.2f must exceed current price %.2f",
			domain.ErrInvalidAutoBidConfig, params.MaxAmount, auction.CurrentPrice)
	}

	switch params.Strategy {
	case domain.StrategySnipe:
		if params.TriggerMinutes < 1 {
			return fmt.Errorf("%w: snipe trigger must be at least 1 minute", domain.ErrInvalidAutoBidConfig)
		}
	case domain.StrategyIncremental:
		if params.IncrementAmount <= 0 {
			return fmt.Errorf("%w: increment amount must be positive", domain.ErrInvalidAutoBidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidAutoBidConfig, params.Strategy)
	}

	return nil
}
