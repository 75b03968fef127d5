package contract

import "context"

// Responder is the external text/tool-call generation capability, consumed as
// a black box over a request/response contract.
type Responder interface {
	Complete(ctx context.Context, req ResponderRequest) (ResponderReply, error)
}

// ToolGateway is the closed capability registry bound to one customer.
// Dispatch returns ok=false when the named capability is outside the closed
// set; such calls are dropped without a result turn.
type ToolGateway interface {
	Specs() []ToolSpec
	Dispatch(ctx context.Context, call ToolCall) (ToolResult, bool)
}
