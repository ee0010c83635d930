package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vehicle-auction/internal/domain"
)

// MySQLBidRepository is the append-only bid ledger. The auction row is
// the serialization point: Append writes the bid and the price/clock
// projection in one transaction so readers never observe a bid without
// its price update or vice versa.
type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) Append(ctx context.Context, auction *domain.Auction, bid *domain.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning bid transaction: %w", err)
	}
	defer tx.Rollback()

	insertBid := `
        INSERT INTO bids (id, auction_id, bidder_id, amount, origin, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	if _, err := tx.ExecContext(ctx, insertBid,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Amount,
		string(bid.Origin), bid.CreatedAt); err != nil {
		return fmt.Errorf("inserting bid: %w", err)
	}

	updateProjection := `
        UPDATE auctions
        SET current_price = ?, current_bidder_id = ?, end_at = ?,
            extension_count = ?, updated_at = ?
        WHERE id = ?
    `
	if _, err := tx.ExecContext(ctx, updateProjection,
		auction.CurrentPrice, auction.CurrentBidderID, auction.EndAt,
		auction.ExtensionCount, auction.UpdatedAt, auction.ID); err != nil {
		return fmt.Errorf("updating auction projection: %w", err)
	}

	return tx.Commit()
}

func (r *MySQLBidRepository) GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, origin, created_at
        FROM bids
        WHERE auction_id = ?
        ORDER BY created_at ASC, id ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		var origin string

		err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID,
			&bid.Amount, &origin, &bid.CreatedAt)
		if err != nil {
			return nil, err
		}

		bid.Origin = domain.BidOrigin(origin)
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}

func (r *MySQLBidRepository) GetHighestBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, origin, created_at
        FROM bids
        WHERE auction_id = ?
        ORDER BY amount DESC, created_at ASC
        LIMIT 1
    `

	var bid domain.Bid
	var origin string

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &origin, &bid.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	bid.Origin = domain.BidOrigin(origin)
	return &bid, nil
}
