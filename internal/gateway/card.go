package gateway

import (
	"context"

	"github.com/google/uuid"
)

// Cent values that trigger deterministic declines, mirroring the magic
// amounts test processors use.
const (
	declineAuthorizeCents = 13
	declineCaptureCents   = 31
)

// CardGateway is a simulated tokenized-card processor. It stands in for a
// real acquirer integration: approvals are deterministic so failure paths
// can be exercised end to end without an external sandbox.
type CardGateway struct{}

// NewCardGateway creates a new CardGateway.
func NewCardGateway() *CardGateway {
	return &CardGateway{}
}

// Authorize approves unless the amount carries the decline cent value.
func (g *CardGateway) Authorize(ctx context.Context, req Request) (Result, error) {
	if req.Amount.Amount%100 == declineAuthorizeCents {
		return Result{DeclineReason: "do not honor"}, nil
	}

	return Result{Approved: true, Reference: uuid.New().String()}, nil
}

// Capture approves unless the amount carries the decline cent value.
func (g *CardGateway) Capture(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing authorization reference"}, nil
	}

	if req.Amount.Amount%100 == declineCaptureCents {
		return Result{DeclineReason: "capture declined"}, nil
	}

	return Result{Approved: true, Reference: uuid.New().String()}, nil
}

// Credit refunds a captured amount.
func (g *CardGateway) Credit(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing capture reference"}, nil
	}

	return Result{Approved: true, Reference: uuid.New().String()}, nil
}

// Void cancels an unsettled capture.
func (g *CardGateway) Void(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing capture reference"}, nil
	}

	return Result{Approved: true, Reference: uuid.New().String()}, nil
}

// ReverseAuthorization releases an authorization hold.
func (g *CardGateway) ReverseAuthorization(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing authorization reference"}, nil
	}

	return Result{Approved: true, Reference: uuid.New().String()}, nil
}

// Ensure the gateway implementations satisfy the contract.
var (
	_ Gateway = (*CardGateway)(nil)
	_ Gateway = (*BalanceGateway)(nil)
)
