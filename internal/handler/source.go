package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checkout/internal/domain"
	"checkout/internal/gateway"
)

// SourceHandler handles HTTP requests for prepaid balance sources
// (gift certificates, stored credit).
type SourceHandler struct {
	gateways map[domain.PaymentSourceType]*gateway.BalanceGateway
}

// NewSourceHandler creates a new SourceHandler.
func NewSourceHandler(gateways map[domain.PaymentSourceType]*gateway.BalanceGateway) *SourceHandler {
	return &SourceHandler{gateways: gateways}
}

// LoadBalanceRequest is the HTTP request body for loading a balance.
type LoadBalanceRequest struct {
	Type   string       `json:"type"`
	Amount MoneyRequest `json:"amount"`
}

// BalanceResponse is the HTTP response for balance operations.
type BalanceResponse struct {
	SourceID string        `json:"source_id"`
	Type     string        `json:"type"`
	Balance  MoneyResponse `json:"balance"`
}

// LoadBalance handles POST /v1/sources/:id/load
func (h *SourceHandler) LoadBalance(c *gin.Context) {
	sourceID := c.Param("id")

	var req LoadBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Amount.Amount <= 0 || req.Amount.Currency == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be positive with a currency"})
		return
	}

	gw, ok := h.gateways[domain.PaymentSourceType(req.Type)]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown balance source type"})
		return
	}

	balance, err := gw.LoadBalance(c.Request.Context(), sourceID,
		domain.NewMoney(req.Amount.Amount, req.Amount.Currency))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		SourceID: sourceID,
		Type:     req.Type,
		Balance:  toMoneyResponse(balance),
	})
}

// GetBalance handles GET /v1/sources/:id/balance?type=GIFT_CERTIFICATE&currency=USD
func (h *SourceHandler) GetBalance(c *gin.Context) {
	sourceID := c.Param("id")
	sourceType := c.Query("type")
	currency := c.DefaultQuery("currency", "USD")

	gw, ok := h.gateways[domain.PaymentSourceType(sourceType)]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown balance source type"})
		return
	}

	balance, err := gw.Balance(c.Request.Context(), sourceID, currency)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		SourceID: sourceID,
		Type:     sourceType,
		Balance:  toMoneyResponse(balance),
	})
}
