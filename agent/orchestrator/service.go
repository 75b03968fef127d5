// Package orchestrator drives the two-phase sense→plan→act protocol of a
// collection conversation. Every customer-visible claim is produced only
// after all tool evidence for the turn is visible to the responder.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/paylane/collections-agent/agent/contract"
	sessionx "github.com/paylane/collections-agent/agent/session"
)

type phase string

const (
	phaseIdle        phase = "idle"
	phasePlanning    phase = "planning"
	phaseDispatching phase = "dispatching"
	phaseResponding  phase = "responding"
	phaseDone        phase = "done"
)

type Orchestrator struct {
	responder contractx.Responder
	tools     contractx.ToolGateway
	convo     *sessionx.Conversation

	// Composed once per customer at session start; static configuration.
	systemPrompt string
	specs        []contractx.ToolSpec
}

func New(
	responder contractx.Responder,
	tools contractx.ToolGateway,
	convo *sessionx.Conversation,
	systemPrompt string,
) (*Orchestrator, error) {
	if responder == nil {
		return nil, errors.New("responder is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if convo == nil {
		return nil, errors.New("conversation is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("system prompt is required")
	}

	return &Orchestrator{
		responder:    responder,
		tools:        tools,
		convo:        convo,
		systemPrompt: systemPrompt,
		specs:        tools.Specs(),
	}, nil
}

// Open produces the proactive first agent message of a session. No customer
// turn is recorded.
func (o *Orchestrator) Open(ctx context.Context) (string, error) {
	return o.runTurn(ctx, "")
}

// HandleMessage runs one full user turn: sense, plan, act, respond.
func (o *Orchestrator) HandleMessage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: customer message is empty", contractx.ErrValidation)
	}
	return o.runTurn(ctx, text)
}

func (o *Orchestrator) runTurn(ctx context.Context, customerText string) (string, error) {
	ph := phaseIdle

	// Sense
	if customerText != "" {
		o.convo.AppendCustomer(customerText)
	}

	// Plan: first responder call, tools enabled.
	ph = o.transition(ph, phasePlanning)
	reply, err := o.responder.Complete(ctx, contractx.ResponderRequest{
		SystemPrompt: o.systemPrompt,
		Turns:        o.convo.Turns(),
		Tools:        o.specs,
		AllowTools:   true,
	})
	if err != nil {
		// Diagnostic, never fake content; the turn ends without a tool phase.
		return "", err
	}

	if len(reply.ToolCalls) == 0 {
		return o.finalize(ph, reply.Content)
	}

	// Act: record the pending calls as one agent turn, then dispatch them
	// synchronously in the exact order the responder specified.
	o.convo.AppendAgent(reply.Content, reply.ToolCalls)
	ph = o.transition(ph, phaseDispatching)
	for _, call := range reply.ToolCalls {
		result, ok := o.tools.Dispatch(ctx, call)
		if !ok {
			continue
		}
		if err := o.convo.AppendTool(result); err != nil {
			// A duplicate or orphaned correlation id means the completion
			// itself was malformed, so the turn fails as a protocol error.
			return "", fmt.Errorf("%w: recording result for call %s: %v", contractx.ErrSchemaViolation, call.CallID, err)
		}
	}

	// Respond: second responder call, tools disabled, grounded in the tool
	// turns now visible in the conversation.
	ph = o.transition(ph, phaseResponding)
	final, err := o.responder.Complete(ctx, contractx.ResponderRequest{
		SystemPrompt: o.systemPrompt,
		Turns:        o.convo.Turns(),
		AllowTools:   false,
	})
	if err != nil {
		return "", err
	}

	return o.finalize(ph, final.Content)
}

func (o *Orchestrator) finalize(ph phase, content string) (string, error) {
	message := strings.TrimSpace(content)
	if message == "" {
		return "", fmt.Errorf("%w: responder returned an empty message", contractx.ErrSchemaViolation)
	}
	o.convo.AppendAgent(message, nil)
	o.transition(ph, phaseDone)
	return message, nil
}

func (o *Orchestrator) transition(from, to phase) phase {
	log.Debug().
		Str("customer_id", o.convo.CustomerID()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("turn phase transition")
	return to
}
