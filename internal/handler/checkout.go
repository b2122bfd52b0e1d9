package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checkout/internal/domain"
	"checkout/internal/service"
)

// CheckoutHandler handles HTTP requests for checkout payment.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// MoneyRequest is a monetary amount in a request body.
type MoneyRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentSourceRequest is one funding instrument in a checkout request.
type PaymentSourceRequest struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Capacity MoneyRequest `json:"capacity"`
}

// CheckoutRequest is the HTTP request body for a checkout attempt.
type CheckoutRequest struct {
	OrderID     string                 `json:"order_id"`
	Total       MoneyRequest           `json:"total"`
	Sources     []PaymentSourceRequest `json:"sources"`
	CaptureMode string                 `json:"capture_mode"`
}

// CheckoutResponse is the HTTP response for a checkout attempt.
type CheckoutResponse struct {
	OrderID             string                  `json:"order_id"`
	Status              string                  `json:"status"`
	NeedsReconciliation bool                    `json:"needs_reconciliation"`
	Records             []RecordResponse        `json:"records"`
	Rollback            []RollbackEntryResponse `json:"rollback,omitempty"`
}

// Checkout handles POST /v1/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.OrderID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_id is required"})
		return
	}

	if req.Total.Amount <= 0 || req.Total.Currency == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "total must be a positive amount with a currency"})
		return
	}

	if len(req.Sources) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "at least one payment source is required"})
		return
	}

	sources := make([]domain.PaymentSource, 0, len(req.Sources))
	for _, source := range req.Sources {
		if source.ID == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payment source id is required"})
			return
		}
		sources = append(sources, domain.PaymentSource{
			ID:       source.ID,
			Type:     domain.PaymentSourceType(source.Type),
			Capacity: domain.NewMoney(source.Capacity.Amount, source.Capacity.Currency),
		})
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), service.CheckoutRequest{
		OrderID: req.OrderID,
		Total:   domain.NewMoney(req.Total.Amount, req.Total.Currency),
		Sources: sources,
		Mode:    service.CaptureMode(req.CaptureMode),
	})
	if err != nil && result == nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.OrderStatusFailed {
		status = http.StatusPaymentRequired
	}

	respondJSON(c, status, CheckoutResponse{
		OrderID:             result.OrderID,
		Status:              string(result.Status),
		NeedsReconciliation: result.NeedsReconciliation,
		Records:             toRecordResponses(result.Records),
		Rollback:            toRollbackResponse(result.Report),
	})
}
