// Package tool binds the closed capability set of a collection conversation
// to one customer profile. Dispatch is by exact name against the fixed set;
// a request naming anything else is dropped without a result.
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/paylane/collections-agent/agent/contract"
	customerx "github.com/paylane/collections-agent/agent/customer"
	policyx "github.com/paylane/collections-agent/agent/policy"
)

const (
	ToolCheckPlanEligibility       = "check_payment_plan_eligibility"
	ToolGetPlanOptions             = "get_payment_plan_options"
	ToolCheckSettlementEligibility = "check_settlement_discount_eligibility"
	ToolGetSettlementDetails       = "get_settlement_discount_details"
	ToolEscalateToHuman            = "escalate_to_human"
	ToolLogCustomerQuestion        = "log_customer_question"
)

// Registry implements contract.ToolGateway for one customer. It holds the
// only mutable tool-side state of a session: the escalation signal raised by
// the escalate_to_human capability.
type Registry struct {
	customer *customerx.Profile
	now      func() time.Time

	escalated        bool
	escalationReason string
}

var _ contractx.ToolGateway = (*Registry)(nil)

func NewRegistry(customer *customerx.Profile) *Registry {
	return &Registry{
		customer: customer,
		now:      time.Now,
	}
}

// Escalated reports whether escalate_to_human has been invoked this session,
// and with what reason. This is the structured escalation signal the session
// layer consumes instead of scanning model text.
func (r *Registry) Escalated() (bool, string) {
	return r.escalated, r.escalationReason
}

func (r *Registry) Specs() []contractx.ToolSpec {
	return []contractx.ToolSpec{
		{
			Name: ToolCheckPlanEligibility,
			Desc: "Check if the customer is eligible for a payment plan based on their profile",
		},
		{
			Name: ToolGetPlanOptions,
			Desc: "Get detailed payment plan terms and options for eligible customers",
		},
		{
			Name: ToolCheckSettlementEligibility,
			Desc: "Check if customer qualifies for immediate settlement discount",
		},
		{
			Name: ToolGetSettlementDetails,
			Desc: "Get settlement discount amount and final payment details",
		},
		{
			Name: ToolEscalateToHuman,
			Desc: "Escalate the conversation to a human agent when unable to help",
			Params: map[string]contractx.ParamSpec{
				"reason": {Kind: contractx.ParamString, Desc: "The reason for escalation", Required: true},
			},
		},
		{
			Name: ToolLogCustomerQuestion,
			Desc: "Log customer questions that need clarification",
			Params: map[string]contractx.ParamSpec{
				"question": {Kind: contractx.ParamString, Desc: "The question to log", Required: true},
			},
		},
	}
}

// Dispatch executes one capability. ok=false means the name is outside the
// closed set. Argument-binding failures never abort the conversation; they
// come back as a structured error payload.
func (r *Registry) Dispatch(_ context.Context, call contractx.ToolCall) (contractx.ToolResult, bool) {
	var payload map[string]any

	switch call.Tool {
	case ToolCheckPlanEligibility:
		payload = r.checkPlanEligibility()
	case ToolGetPlanOptions:
		payload = r.planOptions()
	case ToolCheckSettlementEligibility:
		payload = r.checkSettlementEligibility()
	case ToolGetSettlementDetails:
		payload = r.settlementDetails()
	case ToolEscalateToHuman:
		payload = r.escalate(call.Args)
	case ToolLogCustomerQuestion:
		payload = r.logQuestion(call.Args)
	default:
		log.Debug().
			Str("tool", call.Tool).
			Str("call_id", call.CallID).
			Msg("dropping call to unregistered capability")
		return contractx.ToolResult{}, false
	}

	return contractx.ToolResult{
		CallID:  call.CallID,
		Tool:    call.Tool,
		Payload: payload,
	}, true
}

func (r *Registry) checkPlanEligibility() map[string]any {
	d := policyx.CheckPaymentPlanEligibility(r.customer)
	reason := d.Reason()
	if d.Eligible {
		reason = policyx.PlanCriteriaMet
	}
	return map[string]any{
		"eligible":    d.Eligible,
		"reason":      reason,
		"customer_id": r.customer.ID,
	}
}

func (r *Registry) planOptions() map[string]any {
	terms, ok := policyx.PaymentPlanTerms(r.customer)
	if !ok {
		d := policyx.CheckPaymentPlanEligibility(r.customer)
		return map[string]any{
			"available": false,
			"reason":    fmt.Sprintf("Not eligible because %s", d.Reason()),
		}
	}
	return map[string]any{
		"available": true,
		"terms": map[string]any{
			"installments":    terms.Installments,
			"monthly_payment": terms.MonthlyPayment,
			"total_amount":    terms.TotalAmount,
		},
	}
}

func (r *Registry) checkSettlementEligibility() map[string]any {
	d := policyx.CheckSettlementDiscountEligibility(r.customer)
	reason := d.Reason()
	if d.Eligible {
		reason = policyx.SettlementCriteriaMet
	}
	return map[string]any{
		"eligible":    d.Eligible,
		"reason":      reason,
		"customer_id": r.customer.ID,
	}
}

func (r *Registry) settlementDetails() map[string]any {
	terms, ok := policyx.SettlementDiscountTerms(r.customer)
	if !ok {
		d := policyx.CheckSettlementDiscountEligibility(r.customer)
		return map[string]any{
			"available": false,
			"reason":    fmt.Sprintf("Not eligible because %s", d.Reason()),
		}
	}
	return map[string]any{
		"available": true,
		"discount": map[string]any{
			"original_amount": terms.OriginalAmount,
			"discount_rate":   terms.DiscountRate,
			"discount_amount": terms.DiscountAmount,
			"final_amount":    terms.FinalAmount,
		},
	}
}

func (r *Registry) escalate(args map[string]any) map[string]any {
	reason, err := requiredString(args, "reason")
	if err != nil {
		return errorPayload(err)
	}

	r.escalated = true
	r.escalationReason = reason

	log.Info().
		Str("customer_id", r.customer.ID).
		Str("reason", reason).
		Msg("conversation escalated to human agent")

	return map[string]any{
		"escalated":   true,
		"reason":      reason,
		"customer_id": r.customer.ID,
		"timestamp":   r.now().Format(time.RFC3339),
	}
}

func (r *Registry) logQuestion(args map[string]any) map[string]any {
	question, err := requiredString(args, "question")
	if err != nil {
		return errorPayload(err)
	}

	log.Info().
		Str("customer_id", r.customer.ID).
		Str("question", question).
		Msg("customer question logged for clarification")

	return map[string]any{
		"logged":      true,
		"question":    question,
		"customer_id": r.customer.ID,
	}
}

func requiredString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("%s is empty", key)
	}
	return s, nil
}

func errorPayload(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
