package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/service"
)

// ──────────────────────────────────────────────
// 4. CHECKOUT ORCHESTRATION
// ──────────────────────────────────────────────

type checkoutFixture struct {
	journal   *MockJournal
	orderRepo *MockOrderRepository
	locker    *MockLocker
	gcGw      *MockGateway
	cardGw    *MockGateway
	checkout  *service.CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	journal := NewMockJournal()
	orderRepo := NewMockOrderRepository()
	locker := NewMockLocker()
	gcGw := NewMockGateway()
	cardGw := NewMockGateway()

	registry := gateway.NewRegistry()
	registry.Register(domain.SourceGiftCertificate, gcGw)
	registry.Register(domain.SourceTokenizedCard, cardGw)

	planner := service.NewPlanner()
	executor := service.NewTransactionExecutor(registry, journal, nil, 5*time.Second)
	rollback := service.NewRollbackCoordinator(journal, executor)

	return &checkoutFixture{
		journal:   journal,
		orderRepo: orderRepo,
		locker:    locker,
		gcGw:      gcGw,
		cardGw:    cardGw,
		checkout:  service.NewCheckoutService(planner, executor, rollback, orderRepo, locker, nil),
	}
}

func splitTenderRequest() service.CheckoutRequest {
	return service.CheckoutRequest{
		OrderID: "order-1",
		Total:   usd(10000),
		Sources: []domain.PaymentSource{
			{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
			{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(70000)},
		},
		Mode: service.AuthorizeAndCapture,
	}
}

func TestCheckout_AllApprovedCompletesOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	result, err := f.checkout.Checkout(context.Background(), splitTenderRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.OrderStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", result.Status)
	}
	if result.Report != nil {
		t.Error("a clean checkout must not produce a rollback report")
	}

	records := f.journal.Records("order-1")
	if len(records) != 4 {
		t.Fatalf("expected 4 journal records, got %d", len(records))
	}
	for _, record := range records {
		if record.Outcome != domain.OutcomeApproved {
			t.Errorf("expected all records APPROVED, got %s for %+v", record.Outcome, record)
		}
		if record.IsCompensation() {
			t.Errorf("unexpected compensation record: %+v", record)
		}
	}

	order := f.orderRepo.GetOrder("order-1")
	if order == nil || order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected persisted order status COMPLETED, got %+v", order)
	}
	if f.locker.ReleaseCallCount != 1 {
		t.Errorf("expected the order lock to be released once, got %d", f.locker.ReleaseCallCount)
	}
}

// A $100 order split across a $30 gift certificate and a card: when the
// card capture declines, everything already journaled is unwound in
// reverse order and the order fails as a unit.
func TestCheckout_SplitTenderCaptureFailureUnwindsInReverse(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()
	f.cardGw.Declines[domain.TransactionCapture] = "do not honor"

	result, err := f.checkout.Checkout(context.Background(), splitTenderRequest())
	if err != nil {
		t.Fatalf("a declined capture is a business outcome, not an error: %v", err)
	}

	if result.Status != domain.OrderStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Status)
	}
	if result.Report == nil || !result.Report.FullyCompensated() {
		t.Errorf("expected full compensation, got %+v", result.Report)
	}

	records := f.journal.Records("order-1")
	if len(records) != 7 {
		t.Fatalf("expected 7 journal records, got %d", len(records))
	}

	type want struct {
		sourceID    string
		txType      domain.TransactionType
		outcome     domain.TransactionOutcome
		compensates int64
	}
	expected := []want{
		{"gc-1", domain.TransactionAuthorization, domain.OutcomeApproved, 0},
		{"gc-1", domain.TransactionCapture, domain.OutcomeApproved, 0},
		{"card-1", domain.TransactionAuthorization, domain.OutcomeApproved, 0},
		{"card-1", domain.TransactionCapture, domain.OutcomeFailed, 0},
		{"card-1", domain.TransactionReverseAuthorization, domain.OutcomeApproved, 3},
		{"gc-1", domain.TransactionVoid, domain.OutcomeApproved, 2},
		{"gc-1", domain.TransactionReverseAuthorization, domain.OutcomeApproved, 1},
	}

	for i, w := range expected {
		record := records[i]
		if record.PaymentSourceID != w.sourceID ||
			record.Type != w.txType ||
			record.Outcome != w.outcome ||
			record.CompensatesRecordID != w.compensates {
			t.Errorf("record %d: got {%s %s %s compensates=%d}, want {%s %s %s compensates=%d}",
				i+1,
				record.PaymentSourceID, record.Type, record.Outcome, record.CompensatesRecordID,
				w.sourceID, w.txType, w.outcome, w.compensates)
		}
	}

	order := f.orderRepo.GetOrder("order-1")
	if order == nil || order.Status != domain.OrderStatusFailed {
		t.Errorf("expected persisted order status FAILED, got %+v", order)
	}
}

func TestCheckout_InsufficientFundsMakesNoGatewayCalls(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	req := service.CheckoutRequest{
		OrderID: "order-1",
		Total:   usd(10000),
		Sources: []domain.PaymentSource{
			{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
		},
	}

	result, err := f.checkout.Checkout(context.Background(), req)
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if result == nil || result.Status != domain.OrderStatusFailed {
		t.Errorf("expected a FAILED result, got %+v", result)
	}

	if len(f.gcGw.Calls()) != 0 {
		t.Errorf("planning failure must not reach any gateway, got %d calls", len(f.gcGw.Calls()))
	}
	if f.journal.CountRecords("order-1") != 0 {
		t.Errorf("planning failure must not be journaled, got %d records", f.journal.CountRecords("order-1"))
	}
}

func TestCheckout_ConcurrentAttemptRejected(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()
	f.locker.ForceLocked = true

	_, err := f.checkout.Checkout(context.Background(), splitTenderRequest())
	if !errors.Is(err, service.ErrOrderLocked) {
		t.Fatalf("expected ErrOrderLocked, got %v", err)
	}
	if f.journal.CountRecords("order-1") != 0 {
		t.Error("a locked-out attempt must not touch the journal")
	}
}

func TestCheckout_AmbiguousCaptureFlagsReconciliation(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()
	f.cardGw.Errors[domain.TransactionCapture] = context.DeadlineExceeded

	result, err := f.checkout.Checkout(context.Background(), splitTenderRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.OrderStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Status)
	}
	if !result.NeedsReconciliation {
		t.Error("an ambiguous capture must flag the order for reconciliation")
	}

	// The card authorization sits under an unconfirmed capture and must not
	// be reversed; the gift certificate leg still unwinds.
	if f.cardGw.CallCount(domain.TransactionReverseAuthorization) != 0 {
		t.Error("authorization under an ambiguous capture must not be reversed")
	}
	if f.gcGw.CallCount(domain.TransactionVoid) != 1 {
		t.Errorf("expected the gift certificate capture voided, got %d voids", f.gcGw.CallCount(domain.TransactionVoid))
	}
	if f.gcGw.CallCount(domain.TransactionReverseAuthorization) != 1 {
		t.Errorf("expected the gift certificate authorization reversed, got %d reversals", f.gcGw.CallCount(domain.TransactionReverseAuthorization))
	}
}

func TestCheckout_AuthorizeOnlyLeavesHoldsOpen(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	req := splitTenderRequest()
	req.Mode = service.AuthorizeOnly

	result, err := f.checkout.Checkout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.OrderStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", result.Status)
	}

	for _, record := range f.journal.Records("order-1") {
		if record.Type != domain.TransactionAuthorization {
			t.Errorf("authorize-only checkout journaled a %s", record.Type)
		}
	}
	if f.gcGw.CallCount(domain.TransactionCapture)+f.cardGw.CallCount(domain.TransactionCapture) != 0 {
		t.Error("authorize-only checkout must not capture")
	}
}

func TestCheckout_RefundCreditsSettledCaptures(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	if _, err := f.checkout.Checkout(context.Background(), splitTenderRequest()); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	refund, err := f.checkout.RefundOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}

	if len(refund.Credits) != 2 {
		t.Fatalf("expected 2 credits, got %d", len(refund.Credits))
	}
	// Most recent capture first.
	if refund.Credits[0].PaymentSourceID != "card-1" || refund.Credits[1].PaymentSourceID != "gc-1" {
		t.Errorf("expected credits in reverse capture order, got %s then %s",
			refund.Credits[0].PaymentSourceID, refund.Credits[1].PaymentSourceID)
	}
	for _, credit := range refund.Credits {
		if credit.Type != domain.TransactionCredit || credit.CompensatesRecordID == 0 {
			t.Errorf("expected a CREDIT linked to its capture, got %+v", credit)
		}
	}

	// Everything refundable is now credited.
	if _, err := f.checkout.RefundOrder(context.Background(), "order-1"); !errors.Is(err, service.ErrNothingToRefund) {
		t.Errorf("expected ErrNothingToRefund on second refund, got %v", err)
	}
}

func TestCheckout_RefundUnknownOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture()

	_, err := f.checkout.RefundOrder(context.Background(), "order-ghost")
	if err == nil {
		t.Fatal("expected an error for an unknown order")
	}
}
