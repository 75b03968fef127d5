package responder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/paylane/collections-agent/agent/contract"
)

const toolCallCompletion = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "model": "openai/gpt-4o",
  "choices": [
    {
      "index": 0,
      "finish_reason": "tool_calls",
      "message": {
        "role": "assistant",
        "content": "",
        "tool_calls": [
          {
            "id": "tc-1",
            "type": "function",
            "function": {
              "name": "check_payment_plan_eligibility",
              "arguments": "{}"
            }
          },
          {
            "id": "tc-2",
            "type": "function",
            "function": {
              "name": "escalate_to_human",
              "arguments": "{\"reason\":\"dispute\"}"
            }
          }
        ]
      }
    }
  ]
}`

const textCompletion = `{
  "id": "cmpl-2",
  "object": "chat.completion",
  "model": "openai/gpt-4o",
  "choices": [
    {
      "index": 0,
      "finish_reason": "stop",
      "message": {
        "role": "assistant",
        "content": "Here is what I can offer."
      }
    }
  ]
}`

type capturingServer struct {
	*httptest.Server
	bodies []map[string]any
}

func newCapturingServer(t *testing.T, responses ...string) *capturingServer {
	t.Helper()
	cs := &capturingServer{}
	i := 0
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		cs.bodies = append(cs.bodies, body)

		resp := responses[len(responses)-1]
		if i < len(responses) {
			resp = responses[i]
		}
		i++
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newTestResponder(t *testing.T, srv *capturingServer) *Responder {
	t.Helper()
	client := openaisdk.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	r, err := New(&client, Config{Model: "openai/gpt-4o", Temperature: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestCompleteParsesToolCallsInOrder(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(t, toolCallCompletion)
	r := newTestResponder(t, srv)

	reply, err := r.Complete(context.Background(), contractx.ResponderRequest{
		SystemPrompt: "preamble",
		Turns: []contractx.Turn{
			{Role: contractx.RoleCustomer, Content: "help"},
		},
		Tools:      []contractx.ToolSpec{{Name: "check_payment_plan_eligibility"}},
		AllowTools: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reply.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(reply.ToolCalls))
	}
	if reply.ToolCalls[0].CallID != "tc-1" || reply.ToolCalls[1].CallID != "tc-2" {
		t.Fatalf("tool call order lost: %+v", reply.ToolCalls)
	}
	if reply.ToolCalls[1].Args["reason"] != "dispute" {
		t.Fatalf("arguments not decoded: %+v", reply.ToolCalls[1].Args)
	}

	if len(srv.bodies) != 1 {
		t.Fatalf("expected 1 request, got %d", len(srv.bodies))
	}
	if srv.bodies[0]["tools"] == nil {
		t.Fatal("planning request must advertise tools")
	}
}

func TestCompleteToolsDisabledOmitsTools(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(t, textCompletion)
	r := newTestResponder(t, srv)

	reply, err := r.Complete(context.Background(), contractx.ResponderRequest{
		SystemPrompt: "preamble",
		Turns: []contractx.Turn{
			{Role: contractx.RoleCustomer, Content: "help"},
			{Role: contractx.RoleAgent, ToolCalls: []contractx.ToolCall{{CallID: "tc-1", Tool: "check_payment_plan_eligibility", Args: map[string]any{}}}},
			{Role: contractx.RoleTool, CallID: "tc-1", ToolName: "check_payment_plan_eligibility", Payload: map[string]any{"eligible": true}},
		},
		Tools:      []contractx.ToolSpec{{Name: "check_payment_plan_eligibility"}},
		AllowTools: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Content != "Here is what I can offer." {
		t.Fatalf("unexpected content: %q", reply.Content)
	}

	body := srv.bodies[0]
	if body["tools"] != nil {
		t.Fatal("tools must be omitted when disabled")
	}
	messages, ok := body["messages"].([]any)
	if !ok || len(messages) != 4 {
		t.Fatalf("expected system + 3 conversation messages, got %v", body["messages"])
	}
	toolMsg, ok := messages[3].(map[string]any)
	if !ok || toolMsg["role"] != "tool" || toolMsg["tool_call_id"] != "tc-1" {
		t.Fatalf("tool turn mis-mapped: %v", messages[3])
	}
}

func TestCompleteTransportFailureIsDiagnostic(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusBadGateway)
	}))
	t.Cleanup(failing.Close)

	client := openaisdk.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(failing.URL),
		option.WithMaxRetries(0),
	)
	r, err := New(&client, Config{Model: "openai/gpt-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = r.Complete(context.Background(), contractx.ResponderRequest{
		SystemPrompt: "preamble",
		AllowTools:   true,
	})
	if !errors.Is(err, contractx.ErrResponder) {
		t.Fatalf("expected ErrResponder, got %v", err)
	}
}
