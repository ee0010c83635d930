package mysql

import (
	"context"
	"database/sql"

	"vehicle-auction/internal/domain"
)

// MySQLAuditRepository stores every bid attempt, accepted or rejected.
// Rows are append-only; there is no update path.
type MySQLAuditRepository struct {
	db *sql.DB
}

func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

func (r *MySQLAuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
        INSERT INTO bid_audit (id, auction_id, bidder_id, amount, origin, outcome, kind, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AuctionID, entry.BidderID, entry.Amount,
		string(entry.Origin), string(entry.Outcome), entry.Kind, entry.CreatedAt)
	return err
}

func (r *MySQLAuditRepository) ListForAuction(ctx context.Context, auctionID string) ([]*domain.AuditEntry, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, origin, outcome, kind, created_at
        FROM bid_audit
        WHERE auction_id = ?
        ORDER BY created_at ASC, id ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var origin, outcome string

		err := rows.Scan(&entry.ID, &entry.AuctionID, &entry.BidderID, &entry.Amount,
			&origin, &outcome, &entry.Kind, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entry.Origin = domain.BidOrigin(origin)
		entry.Outcome = domain.AuditOutcome(outcome)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
