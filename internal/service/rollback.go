package service

import (
	"context"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// RollbackStatus classifies what happened to one forward record during a
// rollback pass.
type RollbackStatus string

const (
	RollbackCompensated            RollbackStatus = "COMPENSATED"
	RollbackCompensationFailed     RollbackStatus = "COMPENSATION_FAILED"
	RollbackAlreadyCompensated     RollbackStatus = "ALREADY_COMPENSATED"
	RollbackRequiresReconciliation RollbackStatus = "REQUIRES_RECONCILIATION"
)

// RollbackEntry reports the compensation result for one forward record.
type RollbackEntry struct {
	RecordID         int64
	PaymentSourceID  string
	Type             domain.TransactionType
	Amount           domain.Money
	Status           RollbackStatus
	CompensationID   int64
	CompensationType domain.TransactionType
	Reason           string
}

// RollbackReport lists, per eligible forward record, whether it was
// compensated. It is surfaced to operators, never silently swallowed.
type RollbackReport struct {
	OrderID string
	Entries []RollbackEntry
}

// FullyCompensated reports whether every entry ended compensated (or was
// compensated by an earlier pass).
func (r *RollbackReport) FullyCompensated() bool {
	for _, entry := range r.Entries {
		if entry.Status != RollbackCompensated && entry.Status != RollbackAlreadyCompensated {
			return false
		}
	}
	return true
}

// NeedsReconciliation reports whether any record was left in an ambiguous
// state that only manual reconciliation can resolve.
func (r *RollbackReport) NeedsReconciliation() bool {
	for _, entry := range r.Entries {
		if entry.Status == RollbackRequiresReconciliation {
			return true
		}
	}
	return false
}

// RollbackCoordinator computes and executes the compensating transactions
// for an order, in reverse journal order.
type RollbackCoordinator struct {
	journal  repository.JournalRepository
	executor *TransactionExecutor
}

// NewRollbackCoordinator creates a new RollbackCoordinator.
func NewRollbackCoordinator(journal repository.JournalRepository, executor *TransactionExecutor) *RollbackCoordinator {
	return &RollbackCoordinator{journal: journal, executor: executor}
}

// Rollback compensates every APPROVED forward record of the order that has
// no compensation attempt yet, most recent first. A CAPTURE is voided; an
// AUTHORIZATION is reversed once its captures are cleared. Compensation is
// best effort: one failure never aborts the loop, because leaving a later
// transaction uncompensated is worse than leaving an earlier one.
//
// The coordinator attempts each eligible record exactly once per pass and
// never retries; a second pass over the same journal appends nothing new.
// Ambiguous records are skipped entirely and reported for manual
// reconciliation, since compensating an unconfirmed transaction risks a
// no-op or a double-reversal.
func (c *RollbackCoordinator) Rollback(ctx context.Context, orderID string) (*RollbackReport, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	records, err := c.journal.RecordsFor(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Index prior compensation attempts. Any attempt counts: a failed
	// compensation is reported, not retried (retry policy belongs to a
	// surrounding scheduler).
	attempted := make(map[int64]bool)
	succeeded := make(map[int64]bool)
	for _, record := range records {
		if !record.IsCompensation() {
			continue
		}
		attempted[record.CompensatesRecordID] = true
		if record.Outcome == domain.OutcomeApproved {
			succeeded[record.CompensatesRecordID] = true
		}
	}

	report := &RollbackReport{OrderID: orderID}

	// clearedCaptures tracks captures voided during this pass, so the
	// authorizations beneath them can be reversed in the same pass.
	clearedCaptures := make(map[int64]bool)

	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		if record.IsCompensation() || !record.Type.IsForward() {
			continue
		}

		switch record.Outcome {
		case domain.OutcomeAmbiguous:
			report.Entries = append(report.Entries, RollbackEntry{
				RecordID:        record.ID,
				PaymentSourceID: record.PaymentSourceID,
				Type:            record.Type,
				Amount:          record.Amount,
				Status:          RollbackRequiresReconciliation,
				Reason:          "gateway outcome unconfirmed, not auto-compensated",
			})
			continue
		case domain.OutcomeApproved:
		default:
			// A failed forward transaction moved no money.
			continue
		}

		if attempted[record.ID] {
			report.Entries = append(report.Entries, RollbackEntry{
				RecordID:        record.ID,
				PaymentSourceID: record.PaymentSourceID,
				Type:            record.Type,
				Amount:          record.Amount,
				Status:          RollbackAlreadyCompensated,
			})
			continue
		}

		if record.Type == domain.TransactionAuthorization {
			// A capture left standing keeps the authorization's hold
			// state unknown; reversing it then would be unsafe.
			if blocker := c.outstandingCapture(records, record, succeeded, clearedCaptures); blocker != nil {
				report.Entries = append(report.Entries, RollbackEntry{
					RecordID:        record.ID,
					PaymentSourceID: record.PaymentSourceID,
					Type:            record.Type,
					Amount:          record.Amount,
					Status:          RollbackCompensationFailed,
					Reason:          "capture not voided, authorization left for reconciliation",
				})
				continue
			}
		}

		entry, err := c.compensate(ctx, orderID, record)
		if err != nil {
			// Journal failures are fatal; return what was attempted so far.
			report.Entries = append(report.Entries, entry)
			return report, err
		}

		if record.Type == domain.TransactionCapture && entry.Status == RollbackCompensated {
			clearedCaptures[record.ID] = true
		}
		report.Entries = append(report.Entries, entry)
	}

	return report, nil
}

// compensate executes the compensating transaction for one forward record.
func (c *RollbackCoordinator) compensate(ctx context.Context, orderID string, record *domain.OrderPaymentRecord) (RollbackEntry, error) {
	compType := domain.CompensationFor(record.Type)

	entry := RollbackEntry{
		RecordID:         record.ID,
		PaymentSourceID:  record.PaymentSourceID,
		Type:             record.Type,
		Amount:           record.Amount,
		CompensationType: compType,
	}

	step := domain.PaymentPlanStep{
		PaymentSourceID: record.PaymentSourceID,
		SourceType:      record.SourceType,
		Type:            compType,
		Amount:          record.Amount,
	}

	// The compensated record's journal ID makes the idempotency key
	// stable across passes.
	comp, err := c.executor.Execute(ctx, orderID, step, int(record.ID), record.GatewayReference, record.ID)
	if err != nil {
		entry.Status = RollbackCompensationFailed
		entry.Reason = err.Error()
		return entry, err
	}

	entry.CompensationID = comp.ID
	if comp.Outcome == domain.OutcomeApproved {
		entry.Status = RollbackCompensated
	} else {
		entry.Status = RollbackCompensationFailed
		entry.Reason = comp.DeclineReason
	}

	return entry, nil
}

// outstandingCapture returns a capture against the same source as auth
// that still blocks reversal of the authorization: an APPROVED capture
// with neither a successful prior compensation nor a void from this pass,
// or an AMBIGUOUS capture whose gateway-side state is unconfirmed.
func (c *RollbackCoordinator) outstandingCapture(
	records []*domain.OrderPaymentRecord,
	auth *domain.OrderPaymentRecord,
	succeeded map[int64]bool,
	clearedCaptures map[int64]bool,
) *domain.OrderPaymentRecord {
	for _, record := range records {
		if record.IsCompensation() ||
			record.Type != domain.TransactionCapture ||
			record.PaymentSourceID != auth.PaymentSourceID ||
			record.ID < auth.ID {
			continue
		}

		switch record.Outcome {
		case domain.OutcomeApproved:
			if !succeeded[record.ID] && !clearedCaptures[record.ID] {
				return record
			}
		case domain.OutcomeAmbiguous:
			return record
		}
	}
	return nil
}
