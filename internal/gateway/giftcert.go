package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"checkout/internal/domain"
)

// Lua scripts keep balance checks and hold-state transitions atomic, so two
// concurrent orders drawing on the same certificate cannot both pass the
// balance check.
const (
	luaAuthorize = `
local balKey = KEYS[1]
local holdKey = KEYS[2]
local amount = tonumber(ARGV[1])
local bal = tonumber(redis.call('GET', balKey) or '0')
if bal < amount then
  return 0
end
redis.call('DECRBY', balKey, amount)
redis.call('HSET', holdKey, 'amount', amount, 'state', 'held')
return 1
`

	luaCapture = `
local holdKey = KEYS[1]
if redis.call('HGET', holdKey, 'state') == 'held' then
  redis.call('HSET', holdKey, 'state', 'captured')
  return 1
end
return 0
`

	luaVoid = `
local holdKey = KEYS[1]
local balKey = KEYS[2]
if redis.call('HGET', holdKey, 'state') == 'captured' then
  redis.call('HSET', holdKey, 'state', 'voided')
  redis.call('INCRBY', balKey, tonumber(redis.call('HGET', holdKey, 'amount')))
  return 1
end
return 0
`

	luaReverse = `
local holdKey = KEYS[1]
local balKey = KEYS[2]
if redis.call('HGET', holdKey, 'state') == 'held' then
  redis.call('HSET', holdKey, 'state', 'reversed')
  redis.call('INCRBY', balKey, tonumber(redis.call('HGET', holdKey, 'amount')))
  return 1
end
return 0
`
)

// BalanceGateway is a Gateway backed by prepaid balances held in Redis.
// It serves in-house instruments (gift certificates, stored credit) where
// the money never leaves the system: an authorization moves balance into a
// hold, a capture settles the hold, void and reverse-authorization return
// the held amount to the balance.
type BalanceGateway struct {
	client *redis.Client
	prefix string
}

// NewGiftCertificateGateway creates a gateway for gift certificates.
func NewGiftCertificateGateway(client *redis.Client) *BalanceGateway {
	return &BalanceGateway{client: client, prefix: "giftcert"}
}

// NewStoredCreditGateway creates a gateway for stored customer credit.
func NewStoredCreditGateway(client *redis.Client) *BalanceGateway {
	return &BalanceGateway{client: client, prefix: "storedcredit"}
}

func (g *BalanceGateway) balanceKey(sourceID string) string {
	return fmt.Sprintf("%s:balance:%s", g.prefix, sourceID)
}

func (g *BalanceGateway) holdKey(reference string) string {
	return fmt.Sprintf("%s:hold:%s", g.prefix, reference)
}

// Authorize places a hold on the source balance.
func (g *BalanceGateway) Authorize(ctx context.Context, req Request) (Result, error) {
	reference := uuid.New().String()

	n, err := g.client.Eval(ctx, luaAuthorize,
		[]string{g.balanceKey(req.PaymentSourceID), g.holdKey(reference)},
		req.Amount.Amount,
	).Int()
	if err != nil {
		return Result{}, err
	}

	if n == 0 {
		return Result{DeclineReason: "insufficient balance"}, nil
	}

	return Result{Approved: true, Reference: reference}, nil
}

// Capture settles a held amount.
func (g *BalanceGateway) Capture(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing authorization reference"}, nil
	}

	n, err := g.client.Eval(ctx, luaCapture, []string{g.holdKey(req.Reference)}).Int()
	if err != nil {
		return Result{}, err
	}

	if n == 0 {
		return Result{DeclineReason: "no open hold for reference"}, nil
	}

	return Result{Approved: true, Reference: req.Reference}, nil
}

// Credit returns funds to the source balance.
func (g *BalanceGateway) Credit(ctx context.Context, req Request) (Result, error) {
	if err := g.client.IncrBy(ctx, g.balanceKey(req.PaymentSourceID), req.Amount.Amount).Err(); err != nil {
		return Result{}, err
	}

	return Result{Approved: true, Reference: uuid.New().String()}, nil
}

// Void cancels a captured hold and returns the amount to the balance.
func (g *BalanceGateway) Void(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing capture reference"}, nil
	}

	n, err := g.client.Eval(ctx, luaVoid,
		[]string{g.holdKey(req.Reference), g.balanceKey(req.PaymentSourceID)},
	).Int()
	if err != nil {
		return Result{}, err
	}

	if n == 0 {
		return Result{DeclineReason: "no captured hold for reference"}, nil
	}

	return Result{Approved: true, Reference: req.Reference}, nil
}

// ReverseAuthorization releases an open hold back to the balance.
func (g *BalanceGateway) ReverseAuthorization(ctx context.Context, req Request) (Result, error) {
	if req.Reference == "" {
		return Result{DeclineReason: "missing authorization reference"}, nil
	}

	n, err := g.client.Eval(ctx, luaReverse,
		[]string{g.holdKey(req.Reference), g.balanceKey(req.PaymentSourceID)},
	).Int()
	if err != nil {
		return Result{}, err
	}

	if n == 0 {
		return Result{DeclineReason: "no open hold for reference"}, nil
	}

	return Result{Approved: true, Reference: req.Reference}, nil
}

// LoadBalance adds funds to a source balance. Used when issuing gift
// certificates or granting stored credit.
func (g *BalanceGateway) LoadBalance(ctx context.Context, sourceID string, amount domain.Money) (domain.Money, error) {
	total, err := g.client.IncrBy(ctx, g.balanceKey(sourceID), amount.Amount).Result()
	if err != nil {
		return domain.Money{}, err
	}

	return domain.NewMoney(total, amount.Currency), nil
}

// Balance returns the available (unheld) balance of a source.
func (g *BalanceGateway) Balance(ctx context.Context, sourceID string, currency string) (domain.Money, error) {
	val, err := g.client.Get(ctx, g.balanceKey(sourceID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return domain.NewMoney(0, currency), nil
		}
		return domain.Money{}, err
	}

	return domain.NewMoney(val, currency), nil
}
