// Package policy evaluates collection eligibility and terms from a customer
// profile. Every function is pure: no mutation, no I/O, identical output for
// identical input. Ineligibility is a structural outcome, never an error.
package policy

import (
	"fmt"
	"math"
	"strings"

	customerx "github.com/paylane/collections-agent/agent/customer"
)

const (
	maxPlanAmount   = 1000.0
	maxPlanDaysLate = 30
	maxPlanRisk     = 0.65

	maxSettlementDaysLate = 15
	maxSettlementRisk     = 0.30

	settlementDiscountRate = 0.05
)

const (
	PlanCriteriaMet       = "all eligibility criteria are met"
	SettlementCriteriaMet = "all criteria for settlement discount are met"
)

// Decision is the outcome of one eligibility predicate. Reasons is populated
// only when ineligible and preserves evaluation order; every failing
// condition is reported, not just the first.
type Decision struct {
	Eligible bool
	Reasons  []string
}

// Reason joins the failure fragments with " and ". Empty for an eligible
// decision.
func (d Decision) Reason() string {
	return strings.Join(d.Reasons, " and ")
}

type PlanTerms struct {
	Installments   int     `json:"installments"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalAmount    float64 `json:"total_amount"`
}

type SettlementTerms struct {
	OriginalAmount float64 `json:"original_amount"`
	DiscountRate   float64 `json:"discount_rate"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

// CheckPaymentPlanEligibility reports whether the customer qualifies for an
// installment plan. Fragment order is fixed: amount, days late, history, risk.
func CheckPaymentPlanEligibility(p *customerx.Profile) Decision {
	var reasons []string

	if p.AmountDue > maxPlanAmount {
		reasons = append(reasons, fmt.Sprintf("balance exceeds €1,000 (current: €%.2f)", p.AmountDue))
	}
	if p.DaysLate > maxPlanDaysLate {
		reasons = append(reasons, fmt.Sprintf("payment is overdue by more than 30 days (current: %d days)", p.DaysLate))
	}
	if p.PaymentHistory == customerx.HistoryPoor {
		reasons = append(reasons, "payment history is classified as poor")
	}
	if p.RiskScore > maxPlanRisk {
		reasons = append(reasons, fmt.Sprintf("risk score is too high (current: %.2f)", p.RiskScore))
	}

	return Decision{Eligible: len(reasons) == 0, Reasons: reasons}
}

// CheckSettlementDiscountEligibility reports whether the customer qualifies
// for an immediate settlement discount.
func CheckSettlementDiscountEligibility(p *customerx.Profile) Decision {
	var reasons []string

	if p.DaysLate > maxSettlementDaysLate {
		reasons = append(reasons, fmt.Sprintf("payment is overdue by more than 15 days (current: %d days)", p.DaysLate))
	}
	if p.PaymentHistory != customerx.HistoryGood {
		reasons = append(reasons, "payment history must be 'good'")
	}
	if p.RiskScore > maxSettlementRisk {
		reasons = append(reasons, fmt.Sprintf("risk score exceeds 0.30 (current: %.2f)", p.RiskScore))
	}

	return Decision{Eligible: len(reasons) == 0, Reasons: reasons}
}

// PaymentPlanTerms computes installment terms for an eligible customer.
// ok is false when the eligibility predicate fails; the predicate is
// re-invoked rather than re-implemented.
func PaymentPlanTerms(p *customerx.Profile) (PlanTerms, bool) {
	if d := CheckPaymentPlanEligibility(p); !d.Eligible {
		return PlanTerms{}, false
	}

	var installments int
	switch {
	case p.AmountDue <= 300:
		installments = 3
	case p.AmountDue <= 600:
		installments = 4
	default:
		installments = 6
	}

	return PlanTerms{
		Installments:   installments,
		MonthlyPayment: roundCents(p.AmountDue / float64(installments)),
		TotalAmount:    p.AmountDue,
	}, true
}

// SettlementDiscountTerms computes the fixed 5% settlement offer for an
// eligible customer. The discount is rounded first and the final amount
// derived from it, so the two always sum back to the original.
func SettlementDiscountTerms(p *customerx.Profile) (SettlementTerms, bool) {
	if d := CheckSettlementDiscountEligibility(p); !d.Eligible {
		return SettlementTerms{}, false
	}

	discount := roundCents(p.AmountDue * settlementDiscountRate)
	return SettlementTerms{
		OriginalAmount: p.AmountDue,
		DiscountRate:   settlementDiscountRate * 100,
		DiscountAmount: discount,
		FinalAmount:    roundCents(p.AmountDue - discount),
	}, true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
