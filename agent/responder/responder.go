// Package responder adapts the OpenAI chat completion API to the
// contract.Responder interface consumed by the orchestrator.
package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	contractx "github.com/paylane/collections-agent/agent/contract"
)

type Config struct {
	Model              string
	Temperature        float64
	MaxCompletionToken int
}

type Responder struct {
	client *openaisdk.Client
	cfg    Config
}

var _ contractx.Responder = (*Responder)(nil)

func New(client *openaisdk.Client, cfg Config) (*Responder, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil openai client", contractx.ErrValidation)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return &Responder{client: client, cfg: cfg}, nil
}

// Complete performs one blocking completion round-trip. Transport and
// protocol failures come back wrapped in ErrResponder so callers can tell
// them apart from genuine model content.
func (r *Responder) Complete(ctx context.Context, req contractx.ResponderRequest) (contractx.ResponderReply, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(r.cfg.Model),
		Messages: buildMessages(req),
	}
	if r.cfg.Temperature >= 0 {
		params.Temperature = openaisdk.Float(r.cfg.Temperature)
	}
	if r.cfg.MaxCompletionToken > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(r.cfg.MaxCompletionToken))
	}
	if req.AllowTools && len(req.Tools) > 0 {
		params.Tools = buildToolParams(req.Tools)
	}

	completion, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.ResponderReply{}, fmt.Errorf("%w: %v", contractx.ErrResponder, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.ResponderReply{}, fmt.Errorf("%w: completion has no choices", contractx.ErrResponder)
	}

	message := completion.Choices[0].Message
	calls, err := parseToolCalls(message.ToolCalls)
	if err != nil {
		return contractx.ResponderReply{}, err
	}
	if !req.AllowTools && len(calls) > 0 {
		return contractx.ResponderReply{}, fmt.Errorf("%w: tool calls returned with tools disabled", contractx.ErrSchemaViolation)
	}

	return contractx.ResponderReply{
		Content:   message.Content,
		ToolCalls: calls,
	}, nil
}

func buildMessages(req contractx.ResponderRequest) []openaisdk.ChatCompletionMessageParamUnion {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	messages = append(messages, openaisdk.SystemMessage(req.SystemPrompt))

	for _, turn := range req.Turns {
		switch turn.Role {
		case contractx.RoleCustomer:
			messages = append(messages, openaisdk.UserMessage(turn.Content))
		case contractx.RoleAgent:
			if len(turn.ToolCalls) == 0 {
				messages = append(messages, openaisdk.AssistantMessage(turn.Content))
				continue
			}
			messages = append(messages, assistantToolCallMessage(turn))
		case contractx.RoleTool:
			messages = append(messages, openaisdk.ToolMessage(encodePayload(turn.Payload), turn.CallID))
		}
	}
	return messages
}

func assistantToolCallMessage(turn contractx.Turn) openaisdk.ChatCompletionMessageParamUnion {
	calls := make([]openaisdk.ChatCompletionMessageToolCallParam, 0, len(turn.ToolCalls))
	for _, call := range turn.ToolCalls {
		calls = append(calls, openaisdk.ChatCompletionMessageToolCallParam{
			ID: call.CallID,
			Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Tool,
				Arguments: encodePayload(call.Args),
			},
		})
	}

	assistant := openaisdk.ChatCompletionAssistantMessageParam{
		ToolCalls: calls,
	}
	if turn.Content != "" {
		assistant.Content = openaisdk.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openaisdk.String(turn.Content),
		}
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func buildToolParams(specs []contractx.ToolSpec) []openaisdk.ChatCompletionToolParam {
	tools := make([]openaisdk.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		properties := map[string]any{}
		required := []string{}
		for name, param := range spec.Params {
			properties[name] = map[string]any{
				"type":        string(param.Kind),
				"description": param.Desc,
			}
			if param.Required {
				required = append(required, name)
			}
		}

		tools = append(tools, openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openaisdk.String(spec.Desc),
				Parameters: shared.FunctionParameters{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return tools
}

func parseToolCalls(raw []openaisdk.ChatCompletionMessageToolCall) ([]contractx.ToolCall, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	calls := make([]contractx.ToolCall, 0, len(raw))
	for _, tc := range raw {
		name := strings.TrimSpace(tc.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call without a name", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if trimmed := strings.TrimSpace(tc.Function.Arguments); trimmed != "" {
			if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid arguments for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		callID := tc.ID
		if callID == "" {
			callID = uuid.NewString()
		}

		calls = append(calls, contractx.ToolCall{
			CallID: callID,
			Tool:   name,
			Args:   args,
		})
	}
	return calls, nil
}

func encodePayload(payload map[string]any) string {
	if len(payload) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
