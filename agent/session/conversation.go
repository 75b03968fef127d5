package session

import (
	"fmt"
	"time"

	contractx "github.com/paylane/collections-agent/agent/contract"
)

// Conversation is the append-only ordered record of turns. It is the only
// mutable entity in the core; turns are never rewritten or removed.
type Conversation struct {
	customerID string
	turns      []contractx.Turn
	now        func() time.Time
}

func NewConversation(customerID string) *Conversation {
	return &Conversation{
		customerID: customerID,
		now:        time.Now,
	}
}

func (c *Conversation) CustomerID() string {
	return c.customerID
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a deep copy; callers cannot mutate the record through it.
func (c *Conversation) Turns() []contractx.Turn {
	out := make([]contractx.Turn, len(c.turns))
	for i, t := range c.turns {
		if len(t.ToolCalls) > 0 {
			calls := make([]contractx.ToolCall, len(t.ToolCalls))
			for j, call := range t.ToolCalls {
				call.Args = copyMap(call.Args)
				calls[j] = call
			}
			t.ToolCalls = calls
		}
		t.Payload = copyMap(t.Payload)
		out[i] = t
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Conversation) AppendCustomer(text string) {
	c.turns = append(c.turns, contractx.Turn{
		Role:       contractx.RoleCustomer,
		Content:    text,
		OccurredAt: c.now().UTC(),
	})
}

// AppendAgent records an agent turn; calls carries the pending tool calls of
// a planning turn and is nil for a final message.
func (c *Conversation) AppendAgent(text string, calls []contractx.ToolCall) {
	c.turns = append(c.turns, contractx.Turn{
		Role:       contractx.RoleAgent,
		Content:    text,
		ToolCalls:  calls,
		OccurredAt: c.now().UTC(),
	})
}

// AppendTool records a tool result turn. The result must correlate to exactly
// one unanswered agent-issued call; anything else is a contract violation.
func (c *Conversation) AppendTool(result contractx.ToolResult) error {
	if result.CallID == "" {
		return fmt.Errorf("%w: tool result has no correlation id", contractx.ErrValidation)
	}

	issued := false
	for _, t := range c.turns {
		switch t.Role {
		case contractx.RoleAgent:
			for _, call := range t.ToolCalls {
				if call.CallID == result.CallID {
					issued = true
				}
			}
		case contractx.RoleTool:
			if t.CallID == result.CallID {
				return fmt.Errorf("%w: call %s already has a result", contractx.ErrValidation, result.CallID)
			}
		}
	}
	if !issued {
		return fmt.Errorf("%w: orphaned tool result for call %s", contractx.ErrValidation, result.CallID)
	}

	c.turns = append(c.turns, contractx.Turn{
		Role:       contractx.RoleTool,
		CallID:     result.CallID,
		ToolName:   result.Tool,
		Payload:    result.Payload,
		OccurredAt: c.now().UTC(),
	})
	return nil
}
