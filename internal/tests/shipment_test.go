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
// 5. SHIPMENT COMPLETION
// ──────────────────────────────────────────────

type shipmentFixture struct {
	journal   *MockJournal
	orderRepo *MockOrderRepository
	idem      *MockIdempotencyStore
	gcGw      *MockGateway
	finalizer *MockFinalizer
	checkout  *service.CheckoutService
	shipment  *service.ShipmentService
}

func newShipmentFixture() *shipmentFixture {
	journal := NewMockJournal()
	orderRepo := NewMockOrderRepository()
	locker := NewMockLocker()
	idem := NewMockIdempotencyStore()
	gcGw := NewMockGateway()
	finalizer := NewMockFinalizer()

	registry := gateway.NewRegistry()
	registry.Register(domain.SourceGiftCertificate, gcGw)

	planner := service.NewPlanner()
	executor := service.NewTransactionExecutor(registry, journal, idem, 5*time.Second)
	rollback := service.NewRollbackCoordinator(journal, executor)

	return &shipmentFixture{
		journal:   journal,
		orderRepo: orderRepo,
		idem:      idem,
		gcGw:      gcGw,
		finalizer: finalizer,
		checkout:  service.NewCheckoutService(planner, executor, rollback, orderRepo, locker, nil),
		shipment:  service.NewShipmentService(executor, rollback, journal, orderRepo, locker, finalizer, nil),
	}
}

// placeHold runs an authorize-only checkout so the order holds funds on gc-1.
func (f *shipmentFixture) placeHold(t *testing.T, orderID string) {
	t.Helper()
	_, err := f.checkout.Checkout(context.Background(), service.CheckoutRequest{
		OrderID: orderID,
		Total:   usd(3000),
		Sources: []domain.PaymentSource{
			{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
		},
		Mode: service.AuthorizeOnly,
	})
	if err != nil {
		t.Fatalf("placing hold: %v", err)
	}
}

func completeRequest(orderID string) service.CompleteShipmentRequest {
	return service.CompleteShipmentRequest{
		OrderID:         orderID,
		ShipmentID:      "ship-1",
		PaymentSourceID: "gc-1",
	}
}

func TestShipment_CapturesHoldAndFinalizes(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	f.placeHold(t, "order-1")

	result, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Capture == nil || result.Capture.Outcome != domain.OutcomeApproved {
		t.Fatalf("expected an approved capture, got %+v", result.Capture)
	}
	if result.Capture.Amount != usd(3000) {
		t.Errorf("expected the full held amount captured, got %s", result.Capture.Amount)
	}
	if f.finalizer.CallCount != 1 {
		t.Errorf("expected the finalize hook called once, got %d", f.finalizer.CallCount)
	}

	order := f.orderRepo.GetOrder("order-1")
	if order == nil || order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected order COMPLETED once the last hold settles, got %+v", order)
	}
}

func TestShipment_DeclinedCaptureNeedsNoCompensation(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	f.placeHold(t, "order-1")
	f.gcGw.Declines[domain.TransactionCapture] = "balance consumed"

	result, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if !errors.Is(err, service.ErrCaptureDeclined) {
		t.Fatalf("expected ErrCaptureDeclined, got %v", err)
	}
	if result == nil || result.Capture == nil || result.Capture.Outcome != domain.OutcomeFailed {
		t.Fatalf("expected the declined capture in the result, got %+v", result)
	}

	// The decline moved no money; nothing to unwind.
	if f.gcGw.CallCount(domain.TransactionVoid) != 0 || f.gcGw.CallCount(domain.TransactionReverseAuthorization) != 0 {
		t.Error("a declined capture must not trigger compensation")
	}
	if f.finalizer.CallCount != 0 {
		t.Error("the finalize hook must not run after a declined capture")
	}
}

func TestShipment_FinalizeFailureUnwindsCaptureAndHold(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	f.placeHold(t, "order-1")
	f.finalizer.Err = errors.New("carrier handoff rejected")

	result, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if !errors.Is(err, service.ErrCompleteShipmentFailed) {
		t.Fatalf("expected ErrCompleteShipmentFailed, got %v", err)
	}
	if result.Report == nil || !result.Report.FullyCompensated() {
		t.Errorf("expected full compensation, got %+v", result.Report)
	}

	records := f.journal.Records("order-1")
	if len(records) != 4 {
		t.Fatalf("expected 4 journal records (auth, capture, void, reverse), got %d", len(records))
	}
	if records[2].Type != domain.TransactionVoid || records[2].CompensatesRecordID != records[1].ID {
		t.Errorf("expected the capture voided first, got %+v", records[2])
	}
	if records[3].Type != domain.TransactionReverseAuthorization || records[3].CompensatesRecordID != records[0].ID {
		t.Errorf("expected the authorization reversed second, got %+v", records[3])
	}

	order := f.orderRepo.GetOrder("order-1")
	if order == nil || order.Status != domain.OrderStatusFailed {
		t.Errorf("expected order FAILED after unwinding, got %+v", order)
	}
}

func TestShipment_AmbiguousCaptureReportedNotCompensated(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	f.placeHold(t, "order-1")
	f.gcGw.Errors[domain.TransactionCapture] = context.DeadlineExceeded

	result, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if !errors.Is(err, service.ErrAmbiguousOutcome) {
		t.Fatalf("expected ErrAmbiguousOutcome, got %v", err)
	}
	if !result.NeedsReconciliation {
		t.Error("expected the result flagged for reconciliation")
	}

	if f.gcGw.CallCount(domain.TransactionVoid) != 0 || f.gcGw.CallCount(domain.TransactionReverseAuthorization) != 0 {
		t.Error("an ambiguous capture must not be auto-compensated")
	}
	if f.finalizer.CallCount != 0 {
		t.Error("the finalize hook must not run on an unconfirmed capture")
	}
}

func TestShipment_NoOpenAuthorization(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()

	_, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if !errors.Is(err, service.ErrNoOpenAuthorization) {
		t.Fatalf("expected ErrNoOpenAuthorization, got %v", err)
	}
}

func TestShipment_AlreadySettledHoldCannotBeCapturedAgain(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	f.placeHold(t, "order-1")

	if _, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1")); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	_, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if !errors.Is(err, service.ErrNoOpenAuthorization) {
		t.Fatalf("expected ErrNoOpenAuthorization on second completion, got %v", err)
	}
	if f.gcGw.CallCount(domain.TransactionCapture) != 1 {
		t.Errorf("expected exactly one capture call, got %d", f.gcGw.CallCount(domain.TransactionCapture))
	}
}

func TestShipment_RecoversInterruptedCapture(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	f.placeHold(t, "order-1")

	auth := f.journal.Records("order-1")[0]

	// Simulate a crash between the gateway capture and the journal append:
	// the idempotency store holds the result, the journal does not.
	key := "order-1:gc-1:CAPTURE:1"
	f.idem.Seed(key, &domain.OrderPaymentRecord{
		OrderID:          "order-1",
		PaymentSourceID:  "gc-1",
		SourceType:       domain.SourceGiftCertificate,
		Type:             domain.TransactionCapture,
		Amount:           usd(3000),
		Outcome:          domain.OutcomeApproved,
		GatewayReference: auth.GatewayReference,
	})

	result, err := f.shipment.CompleteShipment(context.Background(), completeRequest("order-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.gcGw.CallCount(domain.TransactionCapture) != 0 {
		t.Errorf("recovery must replay the stored result, not capture again; got %d calls", f.gcGw.CallCount(domain.TransactionCapture))
	}
	if result.Capture.ID == 0 {
		t.Error("expected the interrupted append finished")
	}
	if f.finalizer.CallCount != 1 {
		t.Errorf("expected finalization to proceed after recovery, got %d calls", f.finalizer.CallCount)
	}
}

func TestShipment_ValidatesInput(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture()
	ctx := context.Background()

	req := completeRequest("order-1")
	req.ShipmentID = ""
	if _, err := f.shipment.CompleteShipment(ctx, req); !errors.Is(err, service.ErrInvalidShipmentID) {
		t.Errorf("empty shipment ID: expected ErrInvalidShipmentID, got %v", err)
	}

	req = completeRequest("order-1")
	req.PaymentSourceID = ""
	if _, err := f.shipment.CompleteShipment(ctx, req); !errors.Is(err, service.ErrInvalidPaymentSourceID) {
		t.Errorf("empty source ID: expected ErrInvalidPaymentSourceID, got %v", err)
	}
}
