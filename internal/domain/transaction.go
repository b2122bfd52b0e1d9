package domain

import "time"

// TransactionType represents the kind of gateway transaction.
type TransactionType string

const (
	TransactionAuthorization        TransactionType = "AUTHORIZATION"
	TransactionCapture              TransactionType = "CAPTURE"
	TransactionCredit               TransactionType = "CREDIT"
	TransactionVoid                 TransactionType = "VOID"
	TransactionReverseAuthorization TransactionType = "REVERSE_AUTHORIZATION"
)

// IsForward reports whether the type moves money forward (as opposed to
// compensating a previous transaction).
func (t TransactionType) IsForward() bool {
	return t == TransactionAuthorization || t == TransactionCapture
}

// CompensationFor returns the transaction type that undoes a forward
// transaction of type t. Returns "" for types that have no compensation.
func CompensationFor(t TransactionType) TransactionType {
	switch t {
	case TransactionCapture:
		return TransactionVoid
	case TransactionAuthorization:
		return TransactionReverseAuthorization
	default:
		return ""
	}
}

// TransactionOutcome represents the decisive result of a gateway call.
type TransactionOutcome string

const (
	OutcomeApproved TransactionOutcome = "APPROVED"
	OutcomeFailed   TransactionOutcome = "FAILED"

	// OutcomeAmbiguous marks a call that neither confirmed success nor
	// failure (timeout, connection reset). Ambiguous records are never
	// auto-compensated; they require manual reconciliation.
	OutcomeAmbiguous TransactionOutcome = "AMBIGUOUS"
)

// OrderPaymentRecord is one journal entry for an attempted transaction.
// Records are immutable once appended; the journal for an order is
// append-only and totally ordered by ID.
type OrderPaymentRecord struct {
	ID                  int64
	OrderID             string
	PaymentSourceID     string
	SourceType          PaymentSourceType
	Type                TransactionType
	Amount              Money
	Outcome             TransactionOutcome
	GatewayReference    string
	DeclineReason       string
	CompensatesRecordID int64 // 0 for forward records
	CreatedAt           time.Time
}

// IsCompensation reports whether the record reverses an earlier one.
func (r *OrderPaymentRecord) IsCompensation() bool {
	return r.CompensatesRecordID != 0
}
