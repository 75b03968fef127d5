package policy

import (
	"reflect"
	"strings"
	"testing"

	customerx "github.com/paylane/collections-agent/agent/customer"
)

func goodStandingCustomer() *customerx.Profile {
	return &customerx.Profile{
		ID:             "CUST-001",
		Name:           "Maria Keller",
		AmountDue:      500,
		DaysLate:       10,
		PaymentHistory: customerx.HistoryGood,
		RiskScore:      0.2,
	}
}

func TestPaymentPlanEligibleCustomer(t *testing.T) {
	t.Parallel()

	c := goodStandingCustomer()
	d := CheckPaymentPlanEligibility(c)
	if !d.Eligible {
		t.Fatalf("expected eligible, got reasons: %v", d.Reasons)
	}
	if len(d.Reasons) != 0 {
		t.Fatalf("eligible decision must carry no reasons, got %v", d.Reasons)
	}

	terms, ok := PaymentPlanTerms(c)
	if !ok {
		t.Fatal("expected terms for eligible customer")
	}
	if terms.Installments != 4 {
		t.Fatalf("expected 4 installments for amount=500, got %d", terms.Installments)
	}
	if terms.MonthlyPayment != 125.00 {
		t.Fatalf("expected monthly payment 125.00, got %v", terms.MonthlyPayment)
	}
	if terms.TotalAmount != 500 {
		t.Fatalf("total amount must echo amount due, got %v", terms.TotalAmount)
	}
}

func TestPaymentPlanAmountCeiling(t *testing.T) {
	t.Parallel()

	c := goodStandingCustomer()
	c.AmountDue = 1200

	d := CheckPaymentPlanEligibility(c)
	if d.Eligible {
		t.Fatal("expected ineligible above the 1000 ceiling")
	}
	if !strings.Contains(d.Reason(), "balance exceeds") {
		t.Fatalf("missing amount fragment in reason: %q", d.Reason())
	}
	if _, ok := PaymentPlanTerms(c); ok {
		t.Fatal("terms must be absent when the predicate fails")
	}
}

func TestPaymentPlanInstallmentTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount       float64
		installments int
		monthly      float64
	}{
		{300, 3, 100.00},
		{299.99, 3, 100.00},
		{600, 4, 150.00},
		{601, 6, 100.17},
		{1000, 6, 166.67},
	}

	for _, tc := range cases {
		c := goodStandingCustomer()
		c.AmountDue = tc.amount

		terms, ok := PaymentPlanTerms(c)
		if !ok {
			t.Fatalf("amount=%v: expected terms", tc.amount)
		}
		if terms.Installments != tc.installments {
			t.Fatalf("amount=%v: expected %d installments, got %d", tc.amount, tc.installments, terms.Installments)
		}
		if terms.MonthlyPayment != tc.monthly {
			t.Fatalf("amount=%v: expected monthly %v, got %v", tc.amount, tc.monthly, terms.MonthlyPayment)
		}
	}
}

func TestPaymentPlanMultipleReasonsInFixedOrder(t *testing.T) {
	t.Parallel()

	c := &customerx.Profile{
		ID:             "CUST-002",
		Name:           "Jonas Brandt",
		AmountDue:      1500,
		DaysLate:       45,
		PaymentHistory: customerx.HistoryPoor,
		RiskScore:      0.9,
	}

	d := CheckPaymentPlanEligibility(c)
	if d.Eligible {
		t.Fatal("expected ineligible")
	}
	if len(d.Reasons) != 4 {
		t.Fatalf("expected all four failing conditions reported, got %d: %v", len(d.Reasons), d.Reasons)
	}

	joined := d.Reason()
	order := []string{"balance exceeds", "overdue by more than 30 days", "classified as poor", "risk score is too high"}
	last := -1
	for _, fragment := range order {
		idx := strings.Index(joined, fragment)
		if idx < 0 {
			t.Fatalf("fragment %q missing from %q", fragment, joined)
		}
		if idx < last {
			t.Fatalf("fragment %q out of order in %q", fragment, joined)
		}
		last = idx
	}
	if strings.Count(joined, " and ") != 3 {
		t.Fatalf("expected fragments joined with ' and ': %q", joined)
	}
}

func TestSettlementDiscountEligibleCustomer(t *testing.T) {
	t.Parallel()

	c := goodStandingCustomer()
	d := CheckSettlementDiscountEligibility(c)
	if !d.Eligible {
		t.Fatalf("expected eligible, got reasons: %v", d.Reasons)
	}

	terms, ok := SettlementDiscountTerms(c)
	if !ok {
		t.Fatal("expected settlement terms")
	}
	if terms.DiscountRate != 5 {
		t.Fatalf("expected 5%% discount rate, got %v", terms.DiscountRate)
	}
	if terms.DiscountAmount != 25.00 {
		t.Fatalf("expected discount 25.00, got %v", terms.DiscountAmount)
	}
	if terms.FinalAmount != 475.00 {
		t.Fatalf("expected final 475.00, got %v", terms.FinalAmount)
	}
}

func TestSettlementDiscountDaysLateOnly(t *testing.T) {
	t.Parallel()

	c := goodStandingCustomer()
	c.AmountDue = 400
	c.DaysLate = 20
	c.RiskScore = 0.1

	d := CheckSettlementDiscountEligibility(c)
	if d.Eligible {
		t.Fatal("expected settlement ineligible at 20 days late")
	}
	if !strings.Contains(d.Reason(), "more than 15 days") {
		t.Fatalf("missing days-late fragment: %q", d.Reason())
	}

	// The same customer still qualifies for a plan.
	if d := CheckPaymentPlanEligibility(c); !d.Eligible {
		t.Fatalf("expected plan eligible, got %v", d.Reasons)
	}
	terms, ok := PaymentPlanTerms(c)
	if !ok || terms.Installments != 4 {
		t.Fatalf("expected 4 installments for amount=400, got ok=%v terms=%+v", ok, terms)
	}
}

func TestSettlementRoundingDerivedFromDiscount(t *testing.T) {
	t.Parallel()

	c := goodStandingCustomer()
	c.AmountDue = 333.33

	terms, ok := SettlementDiscountTerms(c)
	if !ok {
		t.Fatal("expected terms")
	}
	if terms.DiscountAmount != 16.67 {
		t.Fatalf("expected discount 16.67, got %v", terms.DiscountAmount)
	}
	// Final is original minus the rounded discount, not rounded independently.
	if terms.FinalAmount != 316.66 {
		t.Fatalf("expected final 316.66, got %v", terms.FinalAmount)
	}
}

func TestEvaluationIsPure(t *testing.T) {
	t.Parallel()

	c := goodStandingCustomer()
	before := *c

	d1 := CheckPaymentPlanEligibility(c)
	d2 := CheckPaymentPlanEligibility(c)
	if !reflect.DeepEqual(d1, d2) {
		t.Fatalf("repeated evaluation differs: %+v vs %+v", d1, d2)
	}

	t1, ok1 := SettlementDiscountTerms(c)
	t2, ok2 := SettlementDiscountTerms(c)
	if ok1 != ok2 || t1 != t2 {
		t.Fatalf("repeated terms differ: %+v vs %+v", t1, t2)
	}

	if *c != before {
		t.Fatal("policy evaluation mutated the profile")
	}
}
