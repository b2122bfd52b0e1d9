package repository

import (
	"context"

	"checkout/internal/domain"
)

// OrderRepository defines the persistence operations for order payment
// status. The engine writes status transitions; it does not own the wider
// order schema.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// UpdateStatus updates the payment status of an order.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}
