package service

import (
	"context"
	"fmt"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// ShipmentFinalizer is the gateway-specific hook invoked once a shipment's
// capture succeeds (confirmation email trigger, carrier handoff).
type ShipmentFinalizer interface {
	FinalizeShipment(ctx context.Context, orderID, shipmentID string) error
}

// ShipmentService finalizes one physical shipment that was authorized at
// checkout time: capture the held amount, then run the finalize hook. A
// finalization failure is treated like a forward-transaction failure, so
// the capture and its authorization are compensated before returning.
type ShipmentService struct {
	executor      *TransactionExecutor
	rollback      *RollbackCoordinator
	journal       repository.JournalRepository
	orderRepo     repository.OrderRepository
	locks         OrderLocker          // may be nil
	finalizer     ShipmentFinalizer    // may be nil
	notifications *NotificationService // may be nil
}

// NewShipmentService creates a new ShipmentService.
func NewShipmentService(
	executor *TransactionExecutor,
	rollback *RollbackCoordinator,
	journal repository.JournalRepository,
	orderRepo repository.OrderRepository,
	locks OrderLocker,
	finalizer ShipmentFinalizer,
	notifications *NotificationService,
) *ShipmentService {
	return &ShipmentService{
		executor:      executor,
		rollback:      rollback,
		journal:       journal,
		orderRepo:     orderRepo,
		locks:         locks,
		finalizer:     finalizer,
		notifications: notifications,
	}
}

// CompleteShipmentRequest contains the parameters for completing a shipment.
type CompleteShipmentRequest struct {
	OrderID         string
	ShipmentID      string
	PaymentSourceID string
}

// CompleteShipmentResult contains the outcome of a shipment completion.
type CompleteShipmentResult struct {
	OrderID             string
	ShipmentID          string
	Capture             *domain.OrderPaymentRecord
	Report              *RollbackReport
	NeedsReconciliation bool
}

// CompleteShipment captures the open authorization for the shipment's
// payment source and runs the finalize hook.
//
// A declined capture needs no compensation (nothing new moved); it is
// reported as ErrCaptureDeclined. If the hook fails after an approved
// capture, the capture is voided and the authorization reversed, and the
// caller sees ErrCompleteShipmentFailed with the order left in a
// consistent, fully-compensated payment state.
func (s *ShipmentService) CompleteShipment(ctx context.Context, req CompleteShipmentRequest) (*CompleteShipmentResult, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidOrderID
	}
	if req.ShipmentID == "" {
		return nil, ErrInvalidShipmentID
	}
	if req.PaymentSourceID == "" {
		return nil, ErrInvalidPaymentSourceID
	}

	if s.locks != nil {
		ok, err := s.locks.AcquireOrderLock(ctx, req.OrderID, orderLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrOrderLocked
		}
		defer func() {
			_ = s.locks.ReleaseOrderLock(context.WithoutCancel(ctx), req.OrderID)
		}()
	}

	records, err := s.journal.RecordsFor(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	auth := openAuthorization(records, req.PaymentSourceID)
	if auth == nil {
		return nil, ErrNoOpenAuthorization
	}

	result := &CompleteShipmentResult{OrderID: req.OrderID, ShipmentID: req.ShipmentID}

	step := domain.PaymentPlanStep{
		PaymentSourceID: auth.PaymentSourceID,
		SourceType:      auth.SourceType,
		Type:            domain.TransactionCapture,
		Amount:          auth.Amount,
	}

	// The authorization's journal ID keys the capture, so a retried
	// completion cannot capture the same hold twice.
	capture, err := s.executor.Execute(ctx, req.OrderID, step, int(auth.ID), auth.GatewayReference, 0)
	if err != nil {
		return nil, err
	}
	result.Capture = capture

	switch capture.Outcome {
	case domain.OutcomeFailed:
		return result, fmt.Errorf("%w: %s", ErrCaptureDeclined, capture.DeclineReason)
	case domain.OutcomeAmbiguous:
		result.NeedsReconciliation = true
		if s.notifications != nil {
			_ = s.notifications.NotifyReconciliationRequired(ctx, req.OrderID, capture.ID)
		}
		return result, ErrAmbiguousOutcome
	}

	if s.finalizer != nil {
		if finalizeErr := s.finalizer.FinalizeShipment(ctx, req.OrderID, req.ShipmentID); finalizeErr != nil {
			report, rollbackErr := s.rollback.Rollback(ctx, req.OrderID)
			result.Report = report
			result.NeedsReconciliation = report != nil && report.NeedsReconciliation()

			if updateErr := s.orderRepo.UpdateStatus(ctx, req.OrderID, domain.OrderStatusFailed); updateErr != nil {
				return result, updateErr
			}

			if report != nil && s.notifications != nil {
				_ = s.notifications.NotifyRollbackReport(ctx, report)
			}

			if rollbackErr != nil {
				return result, rollbackErr
			}
			return result, fmt.Errorf("%w: %v", ErrCompleteShipmentFailed, finalizeErr)
		}
	}

	// When the last open authorization settles, the order is complete.
	remaining, err := s.journal.RecordsFor(ctx, req.OrderID)
	if err != nil {
		return result, err
	}
	if !hasOpenAuthorization(remaining) {
		if err := s.orderRepo.UpdateStatus(ctx, req.OrderID, domain.OrderStatusCompleted); err != nil {
			return result, err
		}
	}

	if s.notifications != nil {
		_ = s.notifications.NotifyShipmentCompleted(ctx, req.OrderID, req.ShipmentID, capture.Amount)
	}

	return result, nil
}

// openAuthorization returns the most recent APPROVED authorization for the
// source that has neither been captured nor reversed.
func openAuthorization(records []*domain.OrderPaymentRecord, sourceID string) *domain.OrderPaymentRecord {
	reversed := make(map[int64]bool)
	for _, record := range records {
		if record.IsCompensation() && record.Outcome == domain.OutcomeApproved {
			reversed[record.CompensatesRecordID] = true
		}
	}

	var open *domain.OrderPaymentRecord
	for _, record := range records {
		if record.IsCompensation() {
			continue
		}

		switch record.Type {
		case domain.TransactionAuthorization:
			if record.Outcome == domain.OutcomeApproved &&
				record.PaymentSourceID == sourceID &&
				!reversed[record.ID] {
				open = record
			}
		case domain.TransactionCapture:
			// An approved capture settles the authorization before it,
			// unless the capture itself was voided.
			if record.Outcome == domain.OutcomeApproved &&
				record.PaymentSourceID == sourceID &&
				open != nil && record.ID > open.ID &&
				!reversed[record.ID] {
				open = nil
			}
		}
	}

	return open
}

// hasOpenAuthorization reports whether any source still holds funds.
func hasOpenAuthorization(records []*domain.OrderPaymentRecord) bool {
	seen := make(map[string]bool)
	for _, record := range records {
		if record.Type == domain.TransactionAuthorization && !record.IsCompensation() {
			seen[record.PaymentSourceID] = true
		}
	}

	for sourceID := range seen {
		if openAuthorization(records, sourceID) != nil {
			return true
		}
	}
	return false
}
