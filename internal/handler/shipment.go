package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checkout/internal/service"
)

// ShipmentHandler handles HTTP requests for shipment completion.
type ShipmentHandler struct {
	shipmentService *service.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(shipmentService *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// CompleteShipmentRequest is the HTTP request body for completing a shipment.
type CompleteShipmentRequest struct {
	OrderID         string `json:"order_id"`
	PaymentSourceID string `json:"payment_source_id"`
}

// CompleteShipmentResponse is the HTTP response for a shipment completion.
type CompleteShipmentResponse struct {
	OrderID             string                  `json:"order_id"`
	ShipmentID          string                  `json:"shipment_id"`
	NeedsReconciliation bool                    `json:"needs_reconciliation"`
	Capture             *RecordResponse         `json:"capture,omitempty"`
	Rollback            []RollbackEntryResponse `json:"rollback,omitempty"`
	Error               string                  `json:"error,omitempty"`
}

// CompleteShipment handles POST /v1/shipments/:id/complete
func (h *ShipmentHandler) CompleteShipment(c *gin.Context) {
	shipmentID := c.Param("id")

	var req CompleteShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.OrderID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_id is required"})
		return
	}

	if req.PaymentSourceID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payment_source_id is required"})
		return
	}

	result, err := h.shipmentService.CompleteShipment(c.Request.Context(), service.CompleteShipmentRequest{
		OrderID:         req.OrderID,
		ShipmentID:      shipmentID,
		PaymentSourceID: req.PaymentSourceID,
	})
	if err != nil && result == nil {
		respondError(c, err)
		return
	}

	response := CompleteShipmentResponse{
		OrderID:             result.OrderID,
		ShipmentID:          result.ShipmentID,
		NeedsReconciliation: result.NeedsReconciliation,
		Rollback:            toRollbackResponse(result.Report),
	}
	if result.Capture != nil {
		capture := toRecordResponse(result.Capture)
		response.Capture = &capture
	}

	if err != nil {
		response.Error = err.Error()
		respondJSON(c, mapErrorToHTTPStatus(err), response)
		return
	}

	respondJSON(c, http.StatusOK, response)
}
