package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/leiwu2020/salesagents/model"
	"github.com/sashabaranov/go-openai"
)

func decodeToolContent(t *testing.T, message openai.ChatCompletionMessage) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(message.Content), &payload); err != nil {
		t.Fatalf("tool message content is not valid JSON: %v (content: %s)", err, message.Content)
	}
	return payload
}

func TestDispatch_UnknownTool(t *testing.T) {
	dispatcher := NewDispatcher(model.NewHandlerRegistry())

	message := dispatcher.Dispatch(openai.ToolCall{
		ID: "call_1",
		Function: openai.FunctionCall{
			Name:      "does_not_exist",
			Arguments: `{}`,
		},
	}, 1)

	if message.Role != openai.ChatMessageRoleTool {
		t.Errorf("expected tool role, got %q", message.Role)
	}
	if message.ToolCallID != "call_1" {
		t.Errorf("tool call ID not carried: %q", message.ToolCallID)
	}
	if message.Name != "does_not_exist" {
		t.Errorf("tool name not carried: %q", message.Name)
	}

	payload := decodeToolContent(t, message)
	want := (&model.HandlerNotFoundError{ToolName: "does_not_exist"}).Error()
	if payload["error"] != want {
		t.Errorf("expected %q error, got %v", want, payload)
	}
}

func TestDispatch_InvalidArguments(t *testing.T) {
	registry := model.NewHandlerRegistry()
	registry.MustRegister("echo", func(tenantID int64, args map[string]any) (any, error) {
		return args, nil
	})
	dispatcher := NewDispatcher(registry)

	message := dispatcher.Dispatch(openai.ToolCall{
		ID: "call_2",
		Function: openai.FunctionCall{
			Name:      "echo",
			Arguments: `{bad json`,
		},
	}, 1)

	payload := decodeToolContent(t, message)
	if payload["error"] != "invalid arguments" {
		t.Errorf("expected invalid arguments error, got %v", payload)
	}
}

func TestDispatch_HandlerError(t *testing.T) {
	registry := model.NewHandlerRegistry()
	registry.MustRegister("broken", func(tenantID int64, args map[string]any) (any, error) {
		return nil, errors.New("storage unavailable")
	})
	dispatcher := NewDispatcher(registry)

	message := dispatcher.Dispatch(openai.ToolCall{
		ID: "call_3",
		Function: openai.FunctionCall{
			Name:      "broken",
			Arguments: `{}`,
		},
	}, 1)

	payload := decodeToolContent(t, message)
	if payload["error"] != "storage unavailable" {
		t.Errorf("expected handler error in payload, got %v", payload)
	}
}

func TestDispatch_SuccessSerializesResult(t *testing.T) {
	var gotTenant int64
	registry := model.NewHandlerRegistry()
	registry.MustRegister("lookup", func(tenantID int64, args map[string]any) (any, error) {
		gotTenant = tenantID
		return map[string]any{"status": "success", "query": args["query"]}, nil
	})
	dispatcher := NewDispatcher(registry)

	message := dispatcher.Dispatch(openai.ToolCall{
		ID: "call_4",
		Function: openai.FunctionCall{
			Name:      "lookup",
			Arguments: `{"query":"TechCorp"}`,
		},
	}, 42)

	if gotTenant != 42 {
		t.Errorf("tenant ID not bound into handler: got %d", gotTenant)
	}

	payload := decodeToolContent(t, message)
	if payload["status"] != "success" || payload["query"] != "TechCorp" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestDispatch_EmptyArgumentsAllowed(t *testing.T) {
	registry := model.NewHandlerRegistry()
	registry.MustRegister("no_args", func(tenantID int64, args map[string]any) (any, error) {
		return []string{}, nil
	})
	dispatcher := NewDispatcher(registry)

	message := dispatcher.Dispatch(openai.ToolCall{
		ID: "call_5",
		Function: openai.FunctionCall{
			Name: "no_args",
		},
	}, 1)

	if message.Content != "[]" {
		t.Errorf("expected empty list result, got %q", message.Content)
	}
}
