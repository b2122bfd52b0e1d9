package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"checkout/internal/handler"
	"checkout/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CheckoutHandler *handler.CheckoutHandler
	ShipmentHandler *handler.ShipmentHandler
	OrderHandler    *handler.OrderHandler
	SourceHandler   *handler.SourceHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Checkout.
		v1.POST("/checkout", deps.CheckoutHandler.Checkout)

		// Shipment completion.
		shipments := v1.Group("/shipments")
		{
			shipments.POST("/:id/complete", deps.ShipmentHandler.CompleteShipment)
		}

		// Order payment state.
		orders := v1.Group("/orders")
		{
			orders.GET("/:id", deps.OrderHandler.GetOrder)
			orders.GET("/:id/journal", deps.OrderHandler.GetJournal)
			orders.POST("/:id/refund", deps.OrderHandler.RefundOrder)
		}

		// Prepaid balance sources.
		sources := v1.Group("/sources")
		{
			sources.POST("/:id/load", deps.SourceHandler.LoadBalance)
			sources.GET("/:id/balance", deps.SourceHandler.GetBalance)
		}
	}

	return router
}
