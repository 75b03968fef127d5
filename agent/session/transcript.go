package session

import (
	"context"
	"time"

	contractx "github.com/paylane/collections-agent/agent/contract"
	customerx "github.com/paylane/collections-agent/agent/customer"
)

// TranscriptMessage is one persisted conversation entry. Only customer- and
// agent-visible text is persisted; tool plumbing turns never leave memory.
type TranscriptMessage struct {
	Timestamp time.Time      `json:"timestamp"`
	Role      contractx.Role `json:"role"`
	Content   string         `json:"content"`
}

type Transcript struct {
	CustomerID       string              `json:"customer_id"`
	CustomerName     string              `json:"customer_name"`
	ConversationDate time.Time           `json:"conversation_date"`
	RetentionDays    int                 `json:"retention_days"`
	Messages         []TranscriptMessage `json:"messages"`
}

// Store persists transcripts. Save returns an opaque reference usable with
// Load (a file path, a row id).
type Store interface {
	Save(ctx context.Context, t *Transcript) (string, error)
	Load(ctx context.Context, ref string) (*Transcript, error)
}

// BuildTranscript snapshots the customer- and agent-visible text of a
// conversation. Tool plumbing turns carry no customer-facing text and are
// omitted, matching what a human reviewer needs from a transcript.
func BuildTranscript(customer *customerx.Profile, convo *Conversation, at time.Time) *Transcript {
	var messages []TranscriptMessage
	for _, turn := range convo.Turns() {
		if turn.Role == contractx.RoleTool || turn.Content == "" {
			continue
		}
		messages = append(messages, TranscriptMessage{
			Timestamp: turn.OccurredAt,
			Role:      turn.Role,
			Content:   turn.Content,
		})
	}

	return &Transcript{
		CustomerID:       customer.ID,
		CustomerName:     customer.Name,
		ConversationDate: at,
		RetentionDays:    customer.TranscriptRetentionDays,
		Messages:         messages,
	}
}
