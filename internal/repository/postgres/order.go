package postgres

import (
	"context"
	"database/sql"
	"errors"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, status, total_minor, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	return r.q.QueryRowContext(ctx, query,
		order.ID,
		order.Status,
		order.Total.Amount,
		order.Total.Currency,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, status, total_minor, currency, created_at, updated_at
		FROM orders WHERE id = $1
	`

	var order domain.Order
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Status,
		&order.Total.Amount,
		&order.Total.Currency,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &order, nil
}

// UpdateStatus updates the payment status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
