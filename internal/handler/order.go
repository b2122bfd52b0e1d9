package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkout/internal/repository"
	"checkout/internal/service"
)

// OrderHandler handles HTTP requests for order payment state.
type OrderHandler struct {
	orderRepo       repository.OrderRepository
	journal         repository.JournalRepository
	checkoutService *service.CheckoutService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(
	orderRepo repository.OrderRepository,
	journal repository.JournalRepository,
	checkoutService *service.CheckoutService,
) *OrderHandler {
	return &OrderHandler{
		orderRepo:       orderRepo,
		journal:         journal,
		checkoutService: checkoutService,
	}
}

// OrderResponse is the HTTP response for an order.
type OrderResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Total     MoneyResponse `json:"total"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.orderRepo.GetByID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, OrderResponse{
		ID:        order.ID,
		Status:    string(order.Status),
		Total:     toMoneyResponse(order.Total),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	})
}

// JournalResponse is the HTTP response for an order's transaction journal.
type JournalResponse struct {
	OrderID string           `json:"order_id"`
	Records []RecordResponse `json:"records"`
}

// GetJournal handles GET /v1/orders/:id/journal
func (h *OrderHandler) GetJournal(c *gin.Context) {
	orderID := c.Param("id")

	if _, err := h.orderRepo.GetByID(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}

	records, err := h.journal.RecordsFor(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, JournalResponse{
		OrderID: orderID,
		Records: toRecordResponses(records),
	})
}

// RefundResponse is the HTTP response for an order refund.
type RefundResponse struct {
	OrderID string           `json:"order_id"`
	Credits []RecordResponse `json:"credits"`
}

// RefundOrder handles POST /v1/orders/:id/refund
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	orderID := c.Param("id")

	result, err := h.checkoutService.RefundOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RefundResponse{
		OrderID: result.OrderID,
		Credits: toRecordResponses(result.Credits),
	})
}
