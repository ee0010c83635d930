package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"vehicle-auction/internal/domain"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions
            (id, seller_id, starting_price, current_price, reserve_price,
             current_bidder_id, winning_bidder_id, start_at, end_at,
             extension_count, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		auction.ID, auction.SellerID, auction.StartingPrice, auction.CurrentPrice,
		auction.ReservePrice, auction.CurrentBidderID, auction.WinningBidderID,
		auction.StartAt, auction.EndAt, auction.ExtensionCount,
		int(auction.Status), auction.CreatedAt, auction.UpdatedAt)
	return err
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `
        SELECT id, seller_id, starting_price, current_price, reserve_price,
               current_bidder_id, winning_bidder_id, start_at, end_at,
               extension_count, status, created_at, updated_at
        FROM auctions WHERE id = ?
    `

	var auction domain.Auction
	var status int

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&auction.ID, &auction.SellerID, &auction.StartingPrice, &auction.CurrentPrice,
		&auction.ReservePrice, &auction.CurrentBidderID, &auction.WinningBidderID,
		&auction.StartAt, &auction.EndAt, &auction.ExtensionCount,
		&status, &auction.CreatedAt, &auction.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	return &auction, nil
}

func (r *MySQLAuctionRepository) UpdateAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	query := `UPDATE auctions SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, int(status), time.Now(), auctionID)
	return err
}

func (r *MySQLAuctionRepository) SetWinner(ctx context.Context, auctionID, bidderID string) error {
	query := `UPDATE auctions SET winning_bidder_id = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, bidderID, time.Now(), auctionID)
	return err
}

func (r *MySQLAuctionRepository) GetPublishedAuctions(ctx context.Context) ([]*domain.Auction, error) {
	query := `
        SELECT id, seller_id, starting_price, current_price, reserve_price,
               current_bidder_id, winning_bidder_id, start_at, end_at,
               extension_count, status, created_at, updated_at
        FROM auctions WHERE status = ?
    `

	rows, err := r.db.QueryContext(ctx, query, int(domain.AuctionPublished))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		var auction domain.Auction
		var status int

		err := rows.Scan(
			&auction.ID, &auction.SellerID, &auction.StartingPrice, &auction.CurrentPrice,
			&auction.ReservePrice, &auction.CurrentBidderID, &auction.WinningBidderID,
			&auction.StartAt, &auction.EndAt, &auction.ExtensionCount,
			&status, &auction.CreatedAt, &auction.UpdatedAt)
		if err != nil {
			return nil, err
		}

		auction.Status = domain.AuctionStatus(status)
		auctions = append(auctions, &auction)
	}

	return auctions, rows.Err()
}
