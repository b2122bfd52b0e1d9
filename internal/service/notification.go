package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"checkout/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationCheckoutCompleted      NotificationType = "CHECKOUT_COMPLETED"
	NotificationCheckoutFailed         NotificationType = "CHECKOUT_FAILED"
	NotificationShipmentConfirmation   NotificationType = "SHIPMENT_CONFIRMATION"
	NotificationShipmentCompleted      NotificationType = "SHIPMENT_COMPLETED"
	NotificationRollbackReport         NotificationType = "ROLLBACK_REPORT"
	NotificationReconciliationRequired NotificationType = "RECONCILIATION_REQUIRED"
	NotificationRefundIssued           NotificationType = "REFUND_ISSUED"
)

// Notification represents a notification to be delivered.
type Notification struct {
	Type      NotificationType
	OrderID   string
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// NotificationService hands payment outcomes and rollback reports off for
// customer and operator visibility.
type NotificationService struct {
	// In a real system, this would have:
	// - Email client (customer confirmations, receipts)
	// - Paging/alerting client (reconciliation, failed compensations)
	// - Event bus producer for downstream order systems
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyCheckoutCompleted notifies the customer that payment succeeded.
func (s *NotificationService) NotifyCheckoutCompleted(ctx context.Context, orderID string, total domain.Money) error {
	return s.send(ctx, Notification{
		Type:    NotificationCheckoutCompleted,
		OrderID: orderID,
		Title:   "Payment Successful",
		Message: fmt.Sprintf("Payment of %s for order %s was successful", total, orderID),
		Data: map[string]interface{}{
			"order_id": orderID,
			"amount":   total.Amount,
			"currency": total.Currency,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckoutFailed notifies the customer that payment failed.
func (s *NotificationService) NotifyCheckoutFailed(ctx context.Context, orderID, reason string) error {
	return s.send(ctx, Notification{
		Type:    NotificationCheckoutFailed,
		OrderID: orderID,
		Title:   "Payment Failed",
		Message: fmt.Sprintf("Payment for order %s failed: %s", orderID, reason),
		Data: map[string]interface{}{
			"order_id": orderID,
			"reason":   reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRollbackReport surfaces a rollback report to operators. Failed
// compensations in the report are what an on-call operator acts on.
func (s *NotificationService) NotifyRollbackReport(ctx context.Context, report *RollbackReport) error {
	compensated, failed, reconcile := 0, 0, 0
	for _, entry := range report.Entries {
		switch entry.Status {
		case RollbackCompensated, RollbackAlreadyCompensated:
			compensated++
		case RollbackCompensationFailed:
			failed++
		case RollbackRequiresReconciliation:
			reconcile++
		}
	}

	return s.send(ctx, Notification{
		Type:    NotificationRollbackReport,
		OrderID: report.OrderID,
		Title:   "Rollback Report",
		Message: fmt.Sprintf("Order %s rolled back: %d compensated, %d failed, %d need reconciliation",
			report.OrderID, compensated, failed, reconcile),
		Data: map[string]interface{}{
			"order_id":            report.OrderID,
			"entries":             len(report.Entries),
			"failed":              failed,
			"need_reconciliation": reconcile,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReconciliationRequired pages operators about an ambiguous gateway
// outcome that must be confirmed by hand.
func (s *NotificationService) NotifyReconciliationRequired(ctx context.Context, orderID string, recordID int64) error {
	return s.send(ctx, Notification{
		Type:    NotificationReconciliationRequired,
		OrderID: orderID,
		Title:   "Manual Reconciliation Required",
		Message: fmt.Sprintf("Order %s has an unconfirmed gateway transaction (record %d)", orderID, recordID),
		Data: map[string]interface{}{
			"order_id":  orderID,
			"record_id": recordID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyShipmentCompleted notifies the customer that a shipment settled.
func (s *NotificationService) NotifyShipmentCompleted(ctx context.Context, orderID, shipmentID string, amount domain.Money) error {
	return s.send(ctx, Notification{
		Type:    NotificationShipmentCompleted,
		OrderID: orderID,
		Title:   "Shipment Completed",
		Message: fmt.Sprintf("Shipment %s for order %s completed, %s charged", shipmentID, orderID, amount),
		Data: map[string]interface{}{
			"order_id":    orderID,
			"shipment_id": shipmentID,
			"amount":      amount.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRefundIssued notifies the customer that credits were issued.
func (s *NotificationService) NotifyRefundIssued(ctx context.Context, orderID string, credits []*domain.OrderPaymentRecord) error {
	var total int64
	for _, credit := range credits {
		if credit.Outcome == domain.OutcomeApproved {
			total += credit.Amount.Amount
		}
	}

	return s.send(ctx, Notification{
		Type:    NotificationRefundIssued,
		OrderID: orderID,
		Title:   "Refund Issued",
		Message: fmt.Sprintf("Order %s refunded across %d credits", orderID, len(credits)),
		Data: map[string]interface{}{
			"order_id":    orderID,
			"credits":     len(credits),
			"total_minor": total,
		},
		CreatedAt: time.Now(),
	})
}

// FinalizeShipment implements ShipmentFinalizer: the post-capture hook
// sends the shipment confirmation to the customer.
func (s *NotificationService) FinalizeShipment(ctx context.Context, orderID, shipmentID string) error {
	return s.send(ctx, Notification{
		Type:    NotificationShipmentConfirmation,
		OrderID: orderID,
		Title:   "Shipment Confirmed",
		Message: fmt.Sprintf("Shipment %s for order %s is on its way", shipmentID, orderID),
		Data: map[string]interface{}{
			"order_id":    orderID,
			"shipment_id": shipmentID,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send customer email
	// 3. Page the on-call operator for reconciliation/rollback types
	// 4. Publish to the order event stream

	log.Printf("[NOTIFICATION] Type=%s, Order=%s, Title=%s, Message=%s",
		notification.Type, notification.OrderID, notification.Title, notification.Message)

	return nil
}
