package service

import (
	"context"
	"fmt"
	"time"

	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/repository"
)

// IdempotencyStore caches gateway results keyed by idempotency key, so a
// repeated execution after a crash replays the original result instead of
// producing a second money movement.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*domain.OrderPaymentRecord, error)
	Put(ctx context.Context, key string, record *domain.OrderPaymentRecord) error
}

// TransactionExecutor executes exactly one transaction against one gateway
// and journals the outcome before returning control to the caller.
//
// A declined payment is not an error: it comes back as a record with
// Outcome FAILED. Error returns are reserved for configuration mistakes
// (unknown gateway, malformed amount) and journal write failures.
type TransactionExecutor struct {
	registry    *gateway.Registry
	journal     repository.JournalRepository
	idempotency IdempotencyStore // may be nil
	callTimeout time.Duration
}

// NewTransactionExecutor creates a new TransactionExecutor.
func NewTransactionExecutor(
	registry *gateway.Registry,
	journal repository.JournalRepository,
	idempotency IdempotencyStore,
	callTimeout time.Duration,
) *TransactionExecutor {
	return &TransactionExecutor{
		registry:    registry,
		journal:     journal,
		idempotency: idempotency,
		callTimeout: callTimeout,
	}
}

// Execute runs one planned step against its gateway and appends the result
// to the journal. seq is the step's position in its plan and feeds the
// idempotency key; reference is the gateway reference of the transaction
// being captured/voided/reversed/credited (empty for authorizations);
// compensates is the journal ID of the record this step reverses (0 for
// forward steps).
func (e *TransactionExecutor) Execute(
	ctx context.Context,
	orderID string,
	step domain.PaymentPlanStep,
	seq int,
	reference string,
	compensates int64,
) (*domain.OrderPaymentRecord, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if step.PaymentSourceID == "" {
		return nil, ErrInvalidPaymentSourceID
	}
	if !step.Amount.IsPositive() || step.Amount.Currency == "" {
		return nil, ErrInvalidAmount
	}

	switch step.Type {
	case domain.TransactionAuthorization, domain.TransactionCapture,
		domain.TransactionCredit, domain.TransactionVoid,
		domain.TransactionReverseAuthorization:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransactionType, step.Type)
	}

	gw, ok := e.registry.Lookup(step.SourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, step.SourceType)
	}

	key := fmt.Sprintf("%s:%s:%s:%d", orderID, step.PaymentSourceID, step.Type, seq)

	// Replay a previously recorded result for this key, if any. A cached
	// record without a journal ID means the original attempt crashed
	// between gateway call and append; finish the append now.
	if e.idempotency != nil {
		cached, err := e.idempotency.Get(ctx, key)
		if err == nil && cached != nil {
			if cached.ID != 0 {
				return cached, nil
			}
			if err := e.journal.Append(ctx, cached); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrJournalAppend, err)
			}
			_ = e.idempotency.Put(ctx, key, cached)
			return cached, nil
		}
	}

	callCtx := ctx
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	req := gateway.Request{
		OrderID:         orderID,
		PaymentSourceID: step.PaymentSourceID,
		Amount:          step.Amount,
		Reference:       reference,
		IdempotencyKey:  key,
	}

	result, callErr := e.dispatch(callCtx, gw, step.Type, req)

	record := &domain.OrderPaymentRecord{
		OrderID:             orderID,
		PaymentSourceID:     step.PaymentSourceID,
		SourceType:          step.SourceType,
		Type:                step.Type,
		Amount:              step.Amount,
		GatewayReference:    result.Reference,
		CompensatesRecordID: compensates,
	}

	switch {
	case callErr != nil:
		// Transport failure: the money movement may or may not have
		// happened on the gateway side. Not a confirmed decline.
		record.Outcome = domain.OutcomeAmbiguous
		record.DeclineReason = callErr.Error()
	case result.Approved:
		record.Outcome = domain.OutcomeApproved
	default:
		record.Outcome = domain.OutcomeFailed
		record.DeclineReason = result.DeclineReason
	}

	// Store the result before the append, so a crash between gateway call
	// and journal write can be recovered by replaying the key.
	if e.idempotency != nil {
		_ = e.idempotency.Put(ctx, key, record)
	}

	if err := e.journal.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJournalAppend, err)
	}

	if e.idempotency != nil {
		_ = e.idempotency.Put(ctx, key, record)
	}

	return record, nil
}

// dispatch routes a step to the matching gateway operation.
func (e *TransactionExecutor) dispatch(ctx context.Context, gw gateway.Gateway, txType domain.TransactionType, req gateway.Request) (gateway.Result, error) {
	switch txType {
	case domain.TransactionAuthorization:
		return gw.Authorize(ctx, req)
	case domain.TransactionCapture:
		return gw.Capture(ctx, req)
	case domain.TransactionCredit:
		return gw.Credit(ctx, req)
	case domain.TransactionVoid:
		return gw.Void(ctx, req)
	case domain.TransactionReverseAuthorization:
		return gw.ReverseAuthorization(ctx, req)
	default:
		return gateway.Result{}, fmt.Errorf("%w: %s", ErrInvalidTransactionType, txType)
	}
}
