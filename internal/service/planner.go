package service

import (
	"checkout/internal/domain"
)

// CaptureMode controls whether a checkout plan settles immediately or
// leaves authorizations open for capture at shipment time.
type CaptureMode string

const (
	// AuthorizeAndCapture settles each source during checkout
	// (digital goods, services).
	AuthorizeAndCapture CaptureMode = "AUTHORIZE_AND_CAPTURE"

	// AuthorizeOnly places holds during checkout; captures happen when
	// the shipment completes.
	AuthorizeOnly CaptureMode = "AUTHORIZE_ONLY"
)

// Planner turns a cart total plus an ordered list of payment sources into
// an ordered plan of forward transactions.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan allocates the total across the sources greedily in slice order.
// Each source is consumed up to its capacity or the remaining uncovered
// amount, whichever is smaller; a source with zero allocation produces no
// step. Identical inputs always yield an identical plan.
//
// The returned step order is the commit order; reversed, it is also the
// rollback order.
func (p *Planner) Plan(total domain.Money, sources []domain.PaymentSource, mode CaptureMode) ([]domain.PaymentPlanStep, error) {
	if !total.IsPositive() || total.Currency == "" {
		return nil, ErrInvalidAmount
	}

	remaining := total.Amount
	var steps []domain.PaymentPlanStep

	for _, source := range sources {
		if remaining == 0 {
			break
		}

		if !source.Capacity.SameCurrency(total) {
			return nil, ErrCurrencyMismatch
		}

		allocated := source.Capacity.Amount
		if allocated > remaining {
			allocated = remaining
		}
		if allocated <= 0 {
			continue
		}

		amount := domain.NewMoney(allocated, total.Currency)
		steps = append(steps, domain.PaymentPlanStep{
			PaymentSourceID: source.ID,
			SourceType:      source.Type,
			Type:            domain.TransactionAuthorization,
			Amount:          amount,
		})
		if mode == AuthorizeAndCapture {
			steps = append(steps, domain.PaymentPlanStep{
				PaymentSourceID: source.ID,
				SourceType:      source.Type,
				Type:            domain.TransactionCapture,
				Amount:          amount,
			})
		}

		remaining -= allocated
	}

	if remaining > 0 {
		return nil, ErrInsufficientFunds
	}

	return steps, nil
}
