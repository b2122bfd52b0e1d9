package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkout/internal/domain"
	"checkout/internal/repository"
	"checkout/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MoneyResponse represents a monetary amount on the wire.
type MoneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// RecordResponse represents one journal entry on the wire.
type RecordResponse struct {
	ID                  int64         `json:"id"`
	OrderID             string        `json:"order_id"`
	PaymentSourceID     string        `json:"payment_source_id"`
	SourceType          string        `json:"source_type"`
	Type                string        `json:"type"`
	Amount              MoneyResponse `json:"amount"`
	Outcome             string        `json:"outcome"`
	GatewayReference    string        `json:"gateway_reference,omitempty"`
	DeclineReason       string        `json:"decline_reason,omitempty"`
	CompensatesRecordID int64         `json:"compensates_record_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// RollbackEntryResponse represents one rollback report entry on the wire.
type RollbackEntryResponse struct {
	RecordID         int64  `json:"record_id"`
	PaymentSourceID  string `json:"payment_source_id"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	CompensationID   int64  `json:"compensation_id,omitempty"`
	CompensationType string `json:"compensation_type,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

func toMoneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount, Currency: m.Currency}
}

func toRecordResponse(record *domain.OrderPaymentRecord) RecordResponse {
	return RecordResponse{
		ID:                  record.ID,
		OrderID:             record.OrderID,
		PaymentSourceID:     record.PaymentSourceID,
		SourceType:          string(record.SourceType),
		Type:                string(record.Type),
		Amount:              toMoneyResponse(record.Amount),
		Outcome:             string(record.Outcome),
		GatewayReference:    record.GatewayReference,
		DeclineReason:       record.DeclineReason,
		CompensatesRecordID: record.CompensatesRecordID,
		CreatedAt:           record.CreatedAt,
	}
}

func toRecordResponses(records []*domain.OrderPaymentRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordResponse(record))
	}
	return out
}

func toRollbackResponse(report *service.RollbackReport) []RollbackEntryResponse {
	if report == nil {
		return nil
	}
	out := make([]RollbackEntryResponse, 0, len(report.Entries))
	for _, entry := range report.Entries {
		out = append(out, RollbackEntryResponse{
			RecordID:         entry.RecordID,
			PaymentSourceID:  entry.PaymentSourceID,
			Type:             string(entry.Type),
			Status:           string(entry.Status),
			CompensationID:   entry.CompensationID,
			CompensationType: string(entry.CompensationType),
			Reason:           entry.Reason,
		})
	}
	return out
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidShipmentID),
		errors.Is(err, service.ErrInvalidPaymentSourceID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidTransactionType),
		errors.Is(err, service.ErrCurrencyMismatch):
		return http.StatusBadRequest

	// Payment declined
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrCaptureDeclined):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, service.ErrOrderLocked),
		errors.Is(err, service.ErrNoOpenAuthorization),
		errors.Is(err, service.ErrNothingToRefund):
		return http.StatusConflict

	// Upstream gateway left the order inconsistent or unconfirmed
	case errors.Is(err, service.ErrCompleteShipmentFailed),
		errors.Is(err, service.ErrAmbiguousOutcome):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
