package contract

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleTool     Role = "tool"
)

// ToolCall is a capability request issued by the responder. CallID is an
// opaque correlation identifier owned by the responder; it ties a tool result
// turn back to the call that produced it.
type ToolCall struct {
	CallID string         `json:"call_id"`
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	CallID  string         `json:"call_id"`
	Tool    string         `json:"tool"`
	Payload map[string]any `json:"payload"`
}

// Turn is one role-attributed entry in a conversation. Agent turns may carry
// pending tool calls; tool turns carry the correlation id of the call they
// answer.
type Turn struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	CallID     string         `json:"call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ParamKind enumerates the primitive kinds accepted in capability arguments.
type ParamKind string

const (
	ParamString ParamKind = "string"
	ParamNumber ParamKind = "number"
	ParamBool   ParamKind = "boolean"
)

type ParamSpec struct {
	Kind     ParamKind
	Desc     string
	Required bool
}

// ToolSpec describes one capability as advertised to the responder.
type ToolSpec struct {
	Name   string
	Desc   string
	Params map[string]ParamSpec
}

// ResponderRequest carries the full ordered conversation plus the static
// preamble. When AllowTools is false the responder must return a text-only
// completion; Tools is ignored in that case.
type ResponderRequest struct {
	SystemPrompt string
	Turns        []Turn
	Tools        []ToolSpec
	AllowTools   bool
}

// ResponderReply is the black-box responder output: text content plus the
// ordered tool calls it requested (possibly none).
type ResponderReply struct {
	Content   string
	ToolCalls []ToolCall
}
