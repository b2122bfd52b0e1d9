package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK JOURNAL
// ──────────────────────────────────────────────

// MockJournal is an in-memory, append-only implementation of
// repository.JournalRepository.
type MockJournal struct {
	mu      sync.Mutex
	records map[string][]*domain.OrderPaymentRecord
	nextID  int64

	// Counters for verification
	AppendCallCount int32

	// Error injection
	AppendError error
}

// NewMockJournal creates a new mock journal.
func NewMockJournal() *MockJournal {
	return &MockJournal{
		records: make(map[string][]*domain.OrderPaymentRecord),
	}
}

func (m *MockJournal) Append(ctx context.Context, record *domain.OrderPaymentRecord) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	record.ID = m.nextID
	record.CreatedAt = time.Now()
	stored := *record
	m.records[record.OrderID] = append(m.records[record.OrderID], &stored)
	return nil
}

func (m *MockJournal) RecordsFor(ctx context.Context, orderID string) ([]*domain.OrderPaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.OrderPaymentRecord, 0, len(m.records[orderID]))
	for _, record := range m.records[orderID] {
		stored := *record
		result = append(result, &stored)
	}
	return result, nil
}

// Records returns the journal contents for test assertions.
func (m *MockJournal) Records(orderID string) []*domain.OrderPaymentRecord {
	records, _ := m.RecordsFor(context.Background(), orderID)
	return records
}

// CountRecords returns the number of journal entries for an order.
func (m *MockJournal) CountRecords(orderID string) int {
	return len(m.Records(orderID))
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

// GetOrder returns an order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// ──────────────────────────────────────────────
// MOCK GATEWAY
// ──────────────────────────────────────────────

// MockGatewayCall records one call made against a mock gateway.
type MockGatewayCall struct {
	Type            domain.TransactionType
	PaymentSourceID string
	Amount          domain.Money
	Reference       string
}

// MockGateway is a scriptable implementation of gateway.Gateway.
// By default every operation approves with a fresh reference.
type MockGateway struct {
	mu     sync.Mutex
	calls  []MockGatewayCall
	refSeq int

	// Declines makes every call of the given type come back declined.
	Declines map[domain.TransactionType]string

	// Errors makes every call of the given type fail at transport level.
	Errors map[domain.TransactionType]error
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Declines: make(map[domain.TransactionType]string),
		Errors:   make(map[domain.TransactionType]error),
	}
}

func (g *MockGateway) do(txType domain.TransactionType, req gateway.Request) (gateway.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, MockGatewayCall{
		Type:            txType,
		PaymentSourceID: req.PaymentSourceID,
		Amount:          req.Amount,
		Reference:       req.Reference,
	})

	if err, ok := g.Errors[txType]; ok {
		return gateway.Result{}, err
	}
	if reason, ok := g.Declines[txType]; ok {
		return gateway.Result{DeclineReason: reason}, nil
	}

	g.refSeq++
	return gateway.Result{Approved: true, Reference: fmt.Sprintf("ref-%d", g.refSeq)}, nil
}

func (g *MockGateway) Authorize(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	return g.do(domain.TransactionAuthorization, req)
}

func (g *MockGateway) Capture(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	return g.do(domain.TransactionCapture, req)
}

func (g *MockGateway) Credit(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	return g.do(domain.TransactionCredit, req)
}

func (g *MockGateway) Void(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	return g.do(domain.TransactionVoid, req)
}

func (g *MockGateway) ReverseAuthorization(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	return g.do(domain.TransactionReverseAuthorization, req)
}

// Calls returns every call made against the gateway.
func (g *MockGateway) Calls() []MockGatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]MockGatewayCall, len(g.calls))
	copy(result, g.calls)
	return result
}

// CallCount returns the number of calls of the given type.
func (g *MockGateway) CallCount(txType domain.TransactionType) int {
	count := 0
	for _, call := range g.Calls() {
		if call.Type == txType {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK IDEMPOTENCY STORE
// ──────────────────────────────────────────────

// MockIdempotencyStore is an in-memory implementation of the executor's
// IdempotencyStore.
type MockIdempotencyStore struct {
	mu      sync.Mutex
	results map[string]*domain.OrderPaymentRecord

	// Counters for verification
	GetCallCount int32
	PutCallCount int32
}

// NewMockIdempotencyStore creates a new mock idempotency store.
func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		results: make(map[string]*domain.OrderPaymentRecord),
	}
}

func (m *MockIdempotencyStore) Get(ctx context.Context, key string) (*domain.OrderPaymentRecord, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.results[key]
	if !ok {
		return nil, nil
	}
	copy := *record
	return &copy, nil
}

func (m *MockIdempotencyStore) Put(ctx context.Context, key string, record *domain.OrderPaymentRecord) error {
	atomic.AddInt32(&m.PutCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *record
	m.results[key] = &stored
	return nil
}

// Seed stores a record under a key without counting as a call.
func (m *MockIdempotencyStore) Seed(key string, record *domain.OrderPaymentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *record
	m.results[key] = &stored
}

// ──────────────────────────────────────────────
// MOCK ORDER LOCKER
// ──────────────────────────────────────────────

// MockLocker is a mock implementation of OrderLocker.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// ForceLocked makes every acquisition fail as already held.
	ForceLocked bool
}

// NewMockLocker creates a new mock locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{
		held: make(map[string]bool),
	}
}

func (m *MockLocker) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceLocked || m.held[orderID] {
		return false, nil
	}
	m.held[orderID] = true
	return true, nil
}

func (m *MockLocker) ReleaseOrderLock(ctx context.Context, orderID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, orderID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK SHIPMENT FINALIZER
// ──────────────────────────────────────────────

// MockFinalizer is a mock implementation of ShipmentFinalizer.
type MockFinalizer struct {
	// Counters for verification
	CallCount int32

	// Error injection
	Err error
}

// NewMockFinalizer creates a new mock finalizer.
func NewMockFinalizer() *MockFinalizer {
	return &MockFinalizer{}
}

func (m *MockFinalizer) FinalizeShipment(ctx context.Context, orderID, shipmentID string) error {
	atomic.AddInt32(&m.CallCount, 1)
	return m.Err
}
