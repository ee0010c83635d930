package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vehicle-auction/internal/domain"
)

type MySQLAutoBidRepository struct {
	db *sql.DB
}

func NewMySQLAutoBidRepository(db *sql.DB) *MySQLAutoBidRepository {
	return &MySQLAutoBidRepository{db: db}
}

const autoBidColumns = `id, auction_id, user_id, max_amount, strategy,
       trigger_minutes, increment_amount, is_active, has_executed,
       last_executed_at, created_at, updated_at`

func (r *MySQLAutoBidRepository) Create(ctx context.Context, autoBid *domain.AutoBid) error {
	// The unique key on (auction_id, user_id) backs the one-config-per-
	// user-per-auction rule at the storage layer as well.
	query := `
        INSERT INTO auto_bids
            (id, auction_id, user_id, max_amount, strategy, trigger_minutes,
             increment_amount, is_active, has_executed, last_executed_at,
             created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		autoBid.ID, autoBid.AuctionID, autoBid.UserID, autoBid.MaxAmount,
		string(autoBid.Strategy), autoBid.TriggerMinutes, autoBid.IncrementAmount,
		autoBid.IsActive, autoBid.HasExecuted, autoBid.LastExecutedAt,
		autoBid.CreatedAt, autoBid.UpdatedAt)
	return err
}

func (r *MySQLAutoBidRepository) Update(ctx context.Context, autoBid *domain.AutoBid) error {
	query := `
        UPDATE auto_bids
        SET max_amount = ?, strategy = ?, trigger_minutes = ?,
            increment_amount = ?, is_active = ?, has_executed = ?,
            updated_at = ?
        WHERE id = ?
    `
	_, err := r.db.ExecContext(ctx, query,
		autoBid.MaxAmount, string(autoBid.Strategy), autoBid.TriggerMinutes,
		autoBid.IncrementAmount, autoBid.IsActive, autoBid.HasExecuted,
		autoBid.UpdatedAt, autoBid.ID)
	return err
}

func (r *MySQLAutoBidRepository) Delete(ctx context.Context, autoBidID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auto_bids WHERE id = ?`, autoBidID)
	return err
}

func (r *MySQLAutoBidRepository) GetByID(ctx context.Context, autoBidID string) (*domain.AutoBid, error) {
	query := `SELECT ` + autoBidColumns + ` FROM auto_bids WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, autoBidID))
}

func (r *MySQLAutoBidRepository) GetForUserAuction(ctx context.Context, userID, auctionID string) (*domain.AutoBid, error) {
	query := `SELECT ` + autoBidColumns + ` FROM auto_bids WHERE user_id = ? AND auction_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, auctionID))
}

func (r *MySQLAutoBidRepository) GetActiveForAuction(ctx context.Context, auctionID string) ([]*domain.AutoBid, error) {
	query := `SELECT ` + autoBidColumns + ` FROM auto_bids WHERE auction_id = ? AND is_active = 1`
	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *MySQLAutoBidRepository) GetActiveAutoBids(ctx context.Context) ([]*domain.AutoBid, error) {
	// Only auto-bids on published auctions matter to the scheduler.
	query := `
        SELECT ab.id, ab.auction_id, ab.user_id, ab.max_amount, ab.strategy,
               ab.trigger_minutes, ab.increment_amount, ab.is_active,
               ab.has_executed, ab.last_executed_at, ab.created_at, ab.updated_at
        FROM auto_bids ab
        JOIN auctions a ON a.id = ab.auction_id
        WHERE ab.is_active = 1 AND a.status = ?
    `
	rows, err := r.db.QueryContext(ctx, query, int(domain.AuctionPublished))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *MySQLAutoBidRepository) MarkExecuted(ctx context.Context, autoBidID string, at time.Time) error {
	query := `UPDATE auto_bids SET has_executed = 1, last_executed_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, at, at, autoBidID)
	return err
}

func (r *MySQLAutoBidRepository) RecordExecution(ctx context.Context, autoBidID string, at time.Time) error {
	query := `UPDATE auto_bids SET last_executed_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, at, at, autoBidID)
	return err
}

func (r *MySQLAutoBidRepository) Deactivate(ctx context.Context, autoBidID string) error {
	query := `UPDATE auto_bids SET is_active = 0, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), autoBidID)
	return err
}

func (r *MySQLAutoBidRepository) DeactivateForAuction(ctx context.Context, auctionID string) error {
	query := `UPDATE auto_bids SET is_active = 0, updated_at = ? WHERE auction_id = ? AND is_active = 1`
	_, err := r.db.ExecContext(ctx, query, time.Now(), auctionID)
	return err
}

func (r *MySQLAutoBidRepository) scanOne(row *sql.Row) (*domain.AutoBid, error) {
	var ab domain.AutoBid
	var strategy string
	var lastExecuted sql.NullTime

	err := row.Scan(&ab.ID, &ab.AuctionID, &ab.UserID, &ab.MaxAmount, &strategy,
		&ab.TriggerMinutes, &ab.IncrementAmount, &ab.IsActive, &ab.HasExecuted,
		&lastExecuted, &ab.CreatedAt, &ab.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAutoBidNotFound
		}
		return nil, err
	}

	ab.Strategy = domain.AutoBidStrategy(strategy)
	if lastExecuted.Valid {
		ab.LastExecutedAt = &lastExecuted.Time
	}
	return &ab, nil
}

func (r *MySQLAutoBidRepository) scanAll(rows *sql.Rows) ([]*domain.AutoBid, error) {
	var autoBids []*domain.AutoBid
	for rows.Next() {
		var ab domain.AutoBid
		var strategy string
		var lastExecuted sql.NullTime

		err := rows.Scan(&ab.ID, &ab.AuctionID, &ab.UserID, &ab.MaxAmount, &strategy,
			&ab.TriggerMinutes, &ab.IncrementAmount, &ab.IsActive, &ab.HasExecuted,
			&lastExecuted, &ab.CreatedAt, &ab.UpdatedAt)
		if err != nil {
			return nil, err
		}

		ab.Strategy = domain.AutoBidStrategy(strategy)
		if lastExecuted.Valid {
			ab.LastExecutedAt = &lastExecuted.Time
		}
		autoBids = append(autoBids, &ab)
	}

	return autoBids, rows.Err()
}
