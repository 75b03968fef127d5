package customer

import (
	"fmt"
	"strings"

	contractx "github.com/paylane/collections-agent/agent/contract"
)

type PaymentHistory string

const (
	HistoryGood    PaymentHistory = "good"
	HistoryAverage PaymentHistory = "average"
	HistoryPoor    PaymentHistory = "poor"
)

// Profile carries the attributes every policy decision is derived from.
// It is immutable for the lifetime of a conversation.
type Profile struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	AmountDue      float64        `json:"amount_due"`
	DaysLate       int            `json:"days_late"`
	PaymentHistory PaymentHistory `json:"payment_history"`
	RiskScore      float64        `json:"risk_score"`

	ConsentToStoreTranscript bool `json:"consent_to_store_transcript"`
	TranscriptRetentionDays  int  `json:"transcript_retention_days"`
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: customer id is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: customer name is empty", contractx.ErrValidation)
	}
	if p.AmountDue < 0 {
		return fmt.Errorf("%w: amount due is negative", contractx.ErrValidation)
	}
	if p.DaysLate < 0 {
		return fmt.Errorf("%w: days late is negative", contractx.ErrValidation)
	}
	switch p.PaymentHistory {
	case HistoryGood, HistoryAverage, HistoryPoor:
	default:
		return fmt.Errorf("%w: unknown payment history %q", contractx.ErrValidation, p.PaymentHistory)
	}
	if p.RiskScore < 0 || p.RiskScore > 1 {
		return fmt.Errorf("%w: risk score %v outside [0,1]", contractx.ErrValidation, p.RiskScore)
	}
	return nil
}
