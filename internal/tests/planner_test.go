package tests

import (
	"errors"
	"reflect"
	"testing"

	"checkout/internal/domain"
	"checkout/internal/service"
)

// ──────────────────────────────────────────────
// 1. PAYMENT PLAN CONSTRUCTION
// ──────────────────────────────────────────────

func usd(amount int64) domain.Money {
	return domain.NewMoney(amount, "USD")
}

func TestPlanner_SplitsAcrossSourcesInPriorityOrder(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
		{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(50000)},
	}

	plan, err := planner.Plan(usd(10000), sources, service.AuthorizeAndCapture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []domain.PaymentPlanStep{
		{PaymentSourceID: "gc-1", SourceType: domain.SourceGiftCertificate, Type: domain.TransactionAuthorization, Amount: usd(3000)},
		{PaymentSourceID: "gc-1", SourceType: domain.SourceGiftCertificate, Type: domain.TransactionCapture, Amount: usd(3000)},
		{PaymentSourceID: "card-1", SourceType: domain.SourceTokenizedCard, Type: domain.TransactionAuthorization, Amount: usd(7000)},
		{PaymentSourceID: "card-1", SourceType: domain.SourceTokenizedCard, Type: domain.TransactionCapture, Amount: usd(7000)},
	}

	if !reflect.DeepEqual(plan, expected) {
		t.Errorf("unexpected plan:\ngot  %+v\nwant %+v", plan, expected)
	}
}

func TestPlanner_PlanCoversTotalExactly(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(1250)},
		{ID: "credit-1", Type: domain.SourceStoredCredit, Capacity: usd(999)},
		{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(100000)},
	}

	plan, err := planner.Plan(usd(7777), sources, service.AuthorizeAndCapture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var authorized int64
	for _, step := range plan {
		if step.Amount.Amount <= 0 {
			t.Errorf("step has non-positive amount: %+v", step)
		}
		if step.Type == domain.TransactionAuthorization {
			authorized += step.Amount.Amount
		}
	}

	if authorized != 7777 {
		t.Errorf("expected authorizations to sum to 7777, got %d", authorized)
	}
}

func TestPlanner_AuthorizeOnlyEmitsNoCaptures(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(20000)},
	}

	plan, err := planner.Plan(usd(5000), sources, service.AuthorizeOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan))
	}
	if plan[0].Type != domain.TransactionAuthorization {
		t.Errorf("expected AUTHORIZATION step, got %s", plan[0].Type)
	}
}

func TestPlanner_SkipsZeroCapacitySources(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-empty", Type: domain.SourceGiftCertificate, Capacity: usd(0)},
		{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(10000)},
	}

	plan, err := planner.Plan(usd(5000), sources, service.AuthorizeAndCapture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, step := range plan {
		if step.PaymentSourceID == "gc-empty" {
			t.Errorf("zero-capacity source produced a step: %+v", step)
		}
	}
}

func TestPlanner_SkipsSourcesBeyondCoverage(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	// The first source covers the full total; the card must not appear.
	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(5000)},
		{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(10000)},
	}

	plan, err := planner.Plan(usd(5000), sources, service.AuthorizeAndCapture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, step := range plan {
		if step.PaymentSourceID == "card-1" {
			t.Errorf("fully covered total still allocated the card: %+v", step)
		}
	}
}

func TestPlanner_InsufficientFunds(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
		{ID: "credit-1", Type: domain.SourceStoredCredit, Capacity: usd(2000)},
	}

	_, err := planner.Plan(usd(10000), sources, service.AuthorizeAndCapture)
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestPlanner_Deterministic(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
		{ID: "card-1", Type: domain.SourceTokenizedCard, Capacity: usd(50000)},
	}

	first, err := planner.Plan(usd(10000), sources, service.AuthorizeAndCapture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := planner.Plan(usd(10000), sources, service.AuthorizeAndCapture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different plans:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestPlanner_CurrencyMismatch(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: domain.NewMoney(3000, "EUR")},
	}

	_, err := planner.Plan(usd(1000), sources, service.AuthorizeAndCapture)
	if !errors.Is(err, service.ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestPlanner_RejectsNonPositiveTotal(t *testing.T) {
	t.Parallel()

	planner := service.NewPlanner()

	sources := []domain.PaymentSource{
		{ID: "gc-1", Type: domain.SourceGiftCertificate, Capacity: usd(3000)},
	}

	_, err := planner.Plan(usd(0), sources, service.AuthorizeAndCapture)
	if !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}
