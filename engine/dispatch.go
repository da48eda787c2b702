package engine

import (
	"encoding/json"

	"github.com/leiwu2020/salesagents/log"
	"github.com/leiwu2020/salesagents/model"
	"github.com/sashabaranov/go-openai"
)

// Dispatcher resolves tool calls requested by the LLM and executes them
// against the registered handlers, with the caller's tenant ID bound to
// every invocation. All failures stay inside the conversation as structured
// error payloads so the next completion round can see and react to them;
// Dispatch never aborts the request.
type Dispatcher struct {
	registry *model.HandlerRegistry
}

// NewDispatcher creates a dispatcher over the given handler registry.
// The registry is injected rather than resolved through globals so tests
// can substitute fake handlers.
func NewDispatcher(registry *model.HandlerRegistry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes one tool call for the tenant and returns the resulting
// tool message. The message always carries the call's ID and tool name;
// its content is either the handler result or an error object, as JSON.
func (d *Dispatcher) Dispatch(call openai.ToolCall, tenantID int64) openai.ChatCompletionMessage {
	message := openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		ToolCallID: call.ID,
		Name:       call.Function.Name,
	}

	args := make(map[string]any)
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			log.Log.Warnf("tool %s: invalid arguments: %v", call.Function.Name, err)
			message.Content = errorPayload("invalid arguments")
			return message
		}
	}

	handler, ok := d.registry.Get(call.Function.Name)
	if !ok {
		err := &model.HandlerNotFoundError{ToolName: call.Function.Name}
		log.Log.Warnf("%v", err)
		message.Content = errorPayload(err.Error())
		return message
	}

	log.Log.Infof("executing tool: %s | args: %s", call.Function.Name, call.Function.Arguments)

	result, err := handler(tenantID, args)
	if err != nil {
		log.Log.Warnf("tool %s failed: %v", call.Function.Name, err)
		message.Content = errorPayload(err.Error())
		return message
	}

	content, err := json.Marshal(result)
	if err != nil {
		log.Log.Errorf("tool %s: failed to serialize result: %v", call.Function.Name, err)
		message.Content = errorPayload("failed to serialize tool result")
		return message
	}

	message.Content = string(content)
	return message
}

// errorPayload builds the structured error content for a failed tool call
func errorPayload(reason string) string {
	content, err := json.Marshal(map[string]string{"error": reason})
	if err != nil {
		return `{"error": "internal error"}`
	}
	return string(content)
}
