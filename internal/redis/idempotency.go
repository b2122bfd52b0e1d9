package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"checkout/internal/domain"
)

const (
	idempotencyPrefix = "gateway:idem:"

	// IdempotencyTTL is how long gateway results are replayable. It must
	// outlive any crash-recovery retry window.
	IdempotencyTTL = 7 * 24 * time.Hour
)

// storedRecord is the Redis representation of a journaled gateway result.
type storedRecord struct {
	ID                  int64  `json:"id"`
	OrderID             string `json:"order_id"`
	PaymentSourceID     string `json:"payment_source_id"`
	SourceType          string `json:"source_type"`
	Type                string `json:"type"`
	AmountMinor         int64  `json:"amount_minor"`
	Currency            string `json:"currency"`
	Outcome             string `json:"outcome"`
	GatewayReference    string `json:"gateway_reference"`
	DeclineReason       string `json:"decline_reason"`
	CompensatesRecordID int64  `json:"compensates_record_id"`
}

// IdempotencyStore caches gateway results keyed by idempotency key, so a
// repeated call after a crash replays the original result instead of
// charging or voiding twice.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Get retrieves the stored result for an idempotency key.
// Returns nil if no result is stored.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*domain.OrderPaymentRecord, error) {
	data, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &domain.OrderPaymentRecord{
		ID:                  stored.ID,
		OrderID:             stored.OrderID,
		PaymentSourceID:     stored.PaymentSourceID,
		SourceType:          domain.PaymentSourceType(stored.SourceType),
		Type:                domain.TransactionType(stored.Type),
		Amount:              domain.NewMoney(stored.AmountMinor, stored.Currency),
		Outcome:             domain.TransactionOutcome(stored.Outcome),
		GatewayReference:    stored.GatewayReference,
		DeclineReason:       stored.DeclineReason,
		CompensatesRecordID: stored.CompensatesRecordID,
	}, nil
}

// Put stores the result for an idempotency key.
func (s *IdempotencyStore) Put(ctx context.Context, key string, record *domain.OrderPaymentRecord) error {
	stored := storedRecord{
		ID:                  record.ID,
		OrderID:             record.OrderID,
		PaymentSourceID:     record.PaymentSourceID,
		SourceType:          string(record.SourceType),
		Type:                string(record.Type),
		AmountMinor:         record.Amount.Amount,
		Currency:            record.Amount.Currency,
		Outcome:             string(record.Outcome),
		GatewayReference:    record.GatewayReference,
		DeclineReason:       record.DeclineReason,
		CompensatesRecordID: record.CompensatesRecordID,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, idempotencyPrefix+key, data, IdempotencyTTL).Err()
}
