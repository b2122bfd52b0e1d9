package service

import (
	"context"
	"errors"
	"time"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// orderLockTTL bounds how long a crashed checkout can hold an order's lock.
const orderLockTTL = 2 * time.Minute

// OrderLocker serializes payment work per order across processes.
type OrderLocker interface {
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderID string) error
}

// CheckoutService drives a single checkout attempt:
// planning, execution, rollback on failure, and the final order status.
//
// An order never partially commits: it ends COMPLETED with every planned
// transaction APPROVED, or FAILED with every journaled forward transaction
// either compensated or reported as failed-to-compensate.
type CheckoutService struct {
	planner       *Planner
	executor      *TransactionExecutor
	rollback      *RollbackCoordinator
	orderRepo     repository.OrderRepository
	locks         OrderLocker          // may be nil
	notifications *NotificationService // may be nil
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	planner *Planner,
	executor *TransactionExecutor,
	rollback *RollbackCoordinator,
	orderRepo repository.OrderRepository,
	locks OrderLocker,
	notifications *NotificationService,
) *CheckoutService {
	return &CheckoutService{
		planner:       planner,
		executor:      executor,
		rollback:      rollback,
		orderRepo:     orderRepo,
		locks:         locks,
		notifications: notifications,
	}
}

// CheckoutRequest contains the parameters for a checkout attempt.
type CheckoutRequest struct {
	OrderID string
	Total   domain.Money
	Sources []domain.PaymentSource
	Mode    CaptureMode
}

// CheckoutResult contains the outcome of a checkout attempt.
type CheckoutResult struct {
	OrderID string
	Status  domain.OrderStatus
	Records []*domain.OrderPaymentRecord
	Report  *RollbackReport

	// NeedsReconciliation is set when a gateway call ended ambiguous;
	// operators must confirm the gateway-side state by hand.
	NeedsReconciliation bool
}

// Checkout authorizes and (depending on mode) captures the order total
// across its payment sources, rolling back everything journaled so far if
// any step fails. A payment decline is reported through the result status,
// not as an error; error returns mean the orchestration itself could not
// run to completion.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidOrderID
	}

	mode := req.Mode
	if mode == "" {
		mode = AuthorizeAndCapture
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

	if err := s.ensureOrder(ctx, req.OrderID, req.Total); err != nil {
		return nil, err
	}

	// PLANNING. Insufficient funds fails the order with zero gateway calls.
	plan, err := s.planner.Plan(req.Total, req.Sources, mode)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			if updateErr := s.orderRepo.UpdateStatus(ctx, req.OrderID, domain.OrderStatusFailed); updateErr != nil {
				return nil, updateErr
			}
			s.notifyCheckoutFailed(ctx, req.OrderID, err.Error())
			return &CheckoutResult{OrderID: req.OrderID, Status: domain.OrderStatusFailed}, err
		}
		return nil, err
	}

	// EXECUTING. Steps run strictly in order; stop at the first
	// non-approved outcome. Capture steps reuse the gateway reference of
	// the authorization that preceded them on the same source.
	result := &CheckoutResult{OrderID: req.OrderID, Status: domain.OrderStatusInProgress}
	authRefs := make(map[string]string)

	var failed *domain.OrderPaymentRecord
	for i, step := range plan {
		record, err := s.executor.Execute(ctx, req.OrderID, step, i+1, authRefs[refKey(step)], 0)
		if err != nil {
			return nil, err
		}

		result.Records = append(result.Records, record)

		if record.Outcome != domain.OutcomeApproved {
			failed = record
			break
		}

		if step.Type == domain.TransactionAuthorization {
			authRefs[step.PaymentSourceID] = record.GatewayReference
		}
	}

	if failed == nil {
		if err := s.orderRepo.UpdateStatus(ctx, req.OrderID, domain.OrderStatusCompleted); err != nil {
			return nil, err
		}
		result.Status = domain.OrderStatusCompleted
		s.notifyCheckoutCompleted(ctx, req.OrderID, req.Total)
		return result, nil
	}

	// ROLLING_BACK. The order ends FAILED irrespective of the report.
	report, rollbackErr := s.rollback.Rollback(ctx, req.OrderID)
	result.Report = report
	result.NeedsReconciliation = failed.Outcome == domain.OutcomeAmbiguous ||
		(report != nil && report.NeedsReconciliation())

	if err := s.orderRepo.UpdateStatus(ctx, req.OrderID, domain.OrderStatusFailed); err != nil {
		return nil, err
	}
	result.Status = domain.OrderStatusFailed

	s.notifyCheckoutFailed(ctx, req.OrderID, failed.DeclineReason)
	if report != nil && s.notifications != nil {
		_ = s.notifications.NotifyRollbackReport(ctx, report)
	}
	if result.NeedsReconciliation && s.notifications != nil {
		_ = s.notifications.NotifyReconciliationRequired(ctx, req.OrderID, failed.ID)
	}

	if rollbackErr != nil {
		return result, rollbackErr
	}
	return result, nil
}

// RefundResult contains the credits issued for a refunded order.
type RefundResult struct {
	OrderID string
	Credits []*domain.OrderPaymentRecord
}

// RefundOrder credits every settled capture of the order that has not been
// voided or credited yet, most recent first. Used for customer returns and
// for cleaning up orders whose captures settled before the order failed.
func (s *CheckoutService) RefundOrder(ctx context.Context, orderID string) (*RefundResult, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	if s.locks != nil {
		ok, err := s.locks.AcquireOrderLock(ctx, orderID, orderLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrOrderLocked
		}
		defer func() {
			_ = s.locks.ReleaseOrderLock(context.WithoutCancel(ctx), orderID)
		}()
	}

	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	records, err := s.executor.journal.RecordsFor(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// A capture is refundable until something reverses it.
	reversed := make(map[int64]bool)
	for _, record := range records {
		if record.IsCompensation() && record.Outcome == domain.OutcomeApproved {
			reversed[record.CompensatesRecordID] = true
		}
	}

	var refundable []*domain.OrderPaymentRecord
	for _, record := range records {
		if record.Type == domain.TransactionCapture &&
			record.Outcome == domain.OutcomeApproved &&
			!record.IsCompensation() &&
			!reversed[record.ID] {
			refundable = append(refundable, record)
		}
	}

	if len(refundable) == 0 {
		return nil, ErrNothingToRefund
	}

	result := &RefundResult{OrderID: orderID}
	for i := len(refundable) - 1; i >= 0; i-- {
		capture := refundable[i]
		step := domain.PaymentPlanStep{
			PaymentSourceID: capture.PaymentSourceID,
			SourceType:      capture.SourceType,
			Type:            domain.TransactionCredit,
			Amount:          capture.Amount,
		}

		credit, err := s.executor.Execute(ctx, orderID, step, int(capture.ID), capture.GatewayReference, capture.ID)
		if err != nil {
			return result, err
		}
		result.Credits = append(result.Credits, credit)
	}

	if s.notifications != nil {
		_ = s.notifications.NotifyRefundIssued(ctx, orderID, result.Credits)
	}

	return result, nil
}

// ensureOrder creates the order row on first contact.
func (s *CheckoutService) ensureOrder(ctx context.Context, orderID string, total domain.Money) error {
	_, err := s.orderRepo.GetByID(ctx, orderID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return s.orderRepo.Create(ctx, &domain.Order{
		ID:     orderID,
		Status: domain.OrderStatusInProgress,
		Total:  total,
	})
}

func (s *CheckoutService) notifyCheckoutCompleted(ctx context.Context, orderID string, total domain.Money) {
	if s.notifications != nil {
		_ = s.notifications.NotifyCheckoutCompleted(ctx, orderID, total)
	}
}

func (s *CheckoutService) notifyCheckoutFailed(ctx context.Context, orderID, reason string) {
	if s.notifications != nil {
		_ = s.notifications.NotifyCheckoutFailed(ctx, orderID, reason)
	}
}

// refKey returns the source whose authorization reference a step consumes.
func refKey(step domain.PaymentPlanStep) string {
	if step.Type == domain.TransactionCapture {
		return step.PaymentSourceID
	}
	return ""
}
