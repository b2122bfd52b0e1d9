package service

import "errors"

var (
	// ErrInsufficientFunds is returned when the payment sources cannot cover the total.
	ErrInsufficientFunds = errors.New("payment sources cannot cover order total")

	// ErrUnknownGateway is returned when no gateway is configured for a source type.
	ErrUnknownGateway = errors.New("no gateway configured for payment source type")

	// ErrInvalidOrderID is returned when the order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidShipmentID is returned when the shipment ID is empty.
	ErrInvalidShipmentID = errors.New("invalid shipment id")

	// ErrInvalidPaymentSourceID is returned when the payment source ID is empty.
	ErrInvalidPaymentSourceID = errors.New("invalid payment source id")

	// ErrInvalidAmount is returned when an amount is non-positive or has no currency.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTransactionType is returned when a step carries an unknown transaction type.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrCurrencyMismatch is returned when sources and total disagree on currency.
	ErrCurrencyMismatch = errors.New("currency mismatch between total and payment sources")

	// ErrJournalAppend is returned when a gateway outcome could not be journaled.
	// The outcome is then unknown to the engine and cannot be safely
	// compensated; callers must escalate, never retry with a fresh attempt.
	ErrJournalAppend = errors.New("journal append failed, transaction outcome unrecorded")

	// ErrOrderLocked is returned when another unit of work holds the order's payment lock.
	ErrOrderLocked = errors.New("order payment flow already in progress")

	// ErrNoOpenAuthorization is returned when a shipment has no authorization left to capture.
	ErrNoOpenAuthorization = errors.New("no open authorization for payment source")

	// ErrCaptureDeclined is returned when the gateway declines a shipment capture.
	ErrCaptureDeclined = errors.New("capture declined by gateway")

	// ErrAmbiguousOutcome is returned when a gateway call neither confirmed
	// success nor failure; the order is flagged for manual reconciliation.
	ErrAmbiguousOutcome = errors.New("gateway outcome ambiguous, manual reconciliation required")

	// ErrCompleteShipmentFailed is returned when shipment finalization failed
	// after a successful capture; the capture and its authorization have been
	// compensated.
	ErrCompleteShipmentFailed = errors.New("shipment completion failed")

	// ErrNothingToRefund is returned when an order has no refundable captures.
	ErrNothingToRefund = errors.New("no refundable captures for order")
)
