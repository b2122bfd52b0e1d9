package gateway

import (
	"context"

	"checkout/internal/domain"
)

// Request contains the parameters for a single gateway transaction.
type Request struct {
	OrderID         string
	PaymentSourceID string
	Amount          domain.Money

	// Reference is the gateway reference of the transaction being
	// captured, voided, reversed or credited. Empty for authorizations.
	Reference string

	// IdempotencyKey lets the gateway recognize a repeated call as a
	// duplicate rather than a new transaction.
	IdempotencyKey string
}

// Result is the decisive outcome of a gateway transaction. A decline is a
// Result with Approved=false, not an error; the error return of a Gateway
// method is reserved for transport failures, where the outcome is unknown.
type Result struct {
	Approved      bool
	Reference     string
	DeclineReason string
}

// Gateway is the five-operation contract every payment gateway implements.
// The engine depends only on this contract, never on gateway-specific
// request/response shapes.
type Gateway interface {
	// Authorize places a hold on funds without transferring them.
	Authorize(ctx context.Context, req Request) (Result, error)

	// Capture converts a prior authorization into a funds transfer.
	Capture(ctx context.Context, req Request) (Result, error)

	// Credit refunds a previously captured amount.
	Credit(ctx context.Context, req Request) (Result, error)

	// Void cancels a capture that has not yet settled.
	Void(ctx context.Context, req Request) (Result, error)

	// ReverseAuthorization releases the hold of a prior authorization.
	ReverseAuthorization(ctx context.Context, req Request) (Result, error)
}
