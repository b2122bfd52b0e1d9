package postgres

import (
	"context"
	"database/sql"

	"checkout/internal/domain"
)

// JournalRepository is a PostgreSQL implementation of
// repository.JournalRepository. The BIGSERIAL primary key gives records
// their total order within an order's journal.
type JournalRepository struct {
	q Querier
}

// NewJournalRepository creates a new PostgreSQL journal repository.
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{q: db}
}

// NewJournalRepositoryWithTx creates a journal repository using a transaction.
func NewJournalRepositoryWithTx(tx *sql.Tx) *JournalRepository {
	return &JournalRepository{q: tx}
}

// Append persists a new record, assigning its sequence number and creation time.
func (r *JournalRepository) Append(ctx context.Context, record *domain.OrderPaymentRecord) error {
	query := `
		INSERT INTO order_payment_records
			(order_id, payment_source_id, source_type, type, amount_minor, currency,
			 outcome, gateway_reference, decline_reason, compensates_record_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	return r.q.QueryRowContext(ctx, query,
		record.OrderID,
		record.PaymentSourceID,
		record.SourceType,
		record.Type,
		record.Amount.Amount,
		record.Amount.Currency,
		record.Outcome,
		record.GatewayReference,
		record.DeclineReason,
		record.CompensatesRecordID,
	).Scan(&record.ID, &record.CreatedAt)
}

// RecordsFor returns every record for the order in append order.
func (r *JournalRepository) RecordsFor(ctx context.Context, orderID string) ([]*domain.OrderPaymentRecord, error) {
	query := `
		SELECT id, order_id, payment_source_id, source_type, type, amount_minor,
		       currency, outcome, gateway_reference, decline_reason,
		       compensates_record_id, created_at
		FROM order_payment_records
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.OrderPaymentRecord
	for rows.Next() {
		var record domain.OrderPaymentRecord
		err := rows.Scan(
			&record.ID,
			&record.OrderID,
			&record.PaymentSourceID,
			&record.SourceType,
			&record.Type,
			&record.Amount.Amount,
			&record.Amount.Currency,
			&record.Outcome,
			&record.GatewayReference,
			&record.DeclineReason,
			&record.CompensatesRecordID,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
