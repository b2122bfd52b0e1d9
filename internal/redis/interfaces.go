package redis

import (
	"context"
	"time"

	"checkout/internal/domain"
)

// LockStoreInterface defines the interface for distributed order locking.
type LockStoreInterface interface {
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderID string) error
}

// IdempotencyStoreInterface defines the interface for gateway result caching.
type IdempotencyStoreInterface interface {
	Get(ctx context.Context, key string) (*domain.OrderPaymentRecord, error)
	Put(ctx context.Context, key string, record *domain.OrderPaymentRecord) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface        = (*LockStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
