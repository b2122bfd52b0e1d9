package repository

import (
	"context"

	"checkout/internal/domain"
)

// JournalRepository defines the persistence operations for the transaction
// journal. The journal is append-only: no record is ever deleted or
// mutated, and "undoing" a transaction always means appending a new
// compensating record.
type JournalRepository interface {
	// Append persists a new record, assigning its sequence number and
	// creation time. An append failure is fatal to the caller: the
	// gateway outcome it carries would otherwise be lost.
	Append(ctx context.Context, record *domain.OrderPaymentRecord) error

	// RecordsFor returns every record for the order in append order.
	RecordsFor(ctx context.Context, orderID string) ([]*domain.OrderPaymentRecord, error)
}
