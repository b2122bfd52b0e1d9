package domain

import "time"

// OrderStatus represents the payment status of an order. It is derived
// from execution, never set directly by callers.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// Order represents an order from the payment engine's point of view.
type Order struct {
	ID        string
	Status    OrderStatus
	Total     Money
	CreatedAt time.Time
	UpdatedAt time.Time
}
