package engine

import (
	"context"
	"fmt"

	"github.com/leiwu2020/salesagents/log"
	"github.com/leiwu2020/salesagents/model"
	"github.com/sashabaranov/go-openai"
)

// Engine runs the two-round completion protocol for one chat request.
//
// Round 1 is issued with the full tool schema set and tool_choice auto. If
// the model requests tool calls, each is dispatched in the order issued and
// its result appended to the conversation, then round 2 runs with no tools
// and its text is the terminal output. If round 1 has no tool calls, its
// text is returned directly.
//
// Tool calls requested during round 2 are deliberately not dispatched: the
// protocol is limited to one dispatch hop per request. No conversation state
// survives between requests.
type Engine struct {
	client     CompletionClient
	model      string
	catalog    *model.Catalog
	dispatcher *Dispatcher
	prompts    *PromptBuilder
}

// NewEngine creates an engine with all collaborators injected.
func NewEngine(
	client CompletionClient,
	modelName string,
	catalog *model.Catalog,
	dispatcher *Dispatcher,
	prompts *PromptBuilder,
) *Engine {
	return &Engine{
		client:     client,
		model:      modelName,
		catalog:    catalog,
		dispatcher: dispatcher,
		prompts:    prompts,
	}
}

// Chat runs one chat request for the tenant and returns the assistant's
// final text. Completion failures propagate to the caller; tool-level
// failures stay inside the conversation.
func (e *Engine) Chat(ctx context.Context, tenant Tenant, messages []openai.ChatCompletionMessage) (string, error) {
	conversation := e.prompts.EnsureSystemPrompt(messages, tenant)

	first, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      e.model,
		Messages:   conversation,
		Tools:      catalogToOpenAI(e.catalog),
		ToolChoice: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(first.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	assistant := first.Choices[0].Message
	if len(assistant.ToolCalls) == 0 {
		return assistant.Content, nil
	}

	// New slice per protocol step; the caller's list is never mutated.
	withTools := make([]openai.ChatCompletionMessage, 0, len(conversation)+1+len(assistant.ToolCalls))
	withTools = append(withTools, conversation...)
	withTools = append(withTools, assistant)
	for _, call := range assistant.ToolCalls {
		withTools = append(withTools, e.dispatcher.Dispatch(call, tenant.ID))
	}

	final, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    e.model,
		Messages: withTools,
	})
	if err != nil {
		return "", fmt.Errorf("final completion request failed: %w", err)
	}
	if len(final.Choices) == 0 {
		return "", fmt.Errorf("no choices in final completion response")
	}

	if len(final.Choices[0].Message.ToolCalls) > 0 {
		log.Log.Warnf("model requested tools in the final round; not dispatched (one-hop limit)")
	}

	return final.Choices[0].Message.Content, nil
}

// catalogToOpenAI converts the catalog to the wire format published to the LLM
func catalogToOpenAI(catalog *model.Catalog) []openai.Tool {
	tools := catalog.Tools()
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}
