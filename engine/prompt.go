package engine

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

//go:embed system_prompt.md
var systemPromptTemplate string

const (
	proactiveCaptureRule = "When the user mentions a new fact about a customer, company, or relationship, IMMEDIATELY use the `add_to_knowledge_base` tool to record it."
	reactiveCaptureRule  = "When the user asks you to remember a fact about a customer, company, or relationship, use the `add_to_knowledge_base` tool to record it."
)

// Tenant is the resolved identity a conversation runs under.
type Tenant struct {
	ID          int64
	DisplayName string
}

// PromptBuilder generates the system message that precedes every conversation.
type PromptBuilder struct {
	// ProactiveKnowledgeCapture selects the eager fact-recording rule instead
	// of the on-request variant.
	ProactiveKnowledgeCapture bool

	// Now is the clock used for the date in the prompt. Defaults to time.Now.
	Now func() time.Time
}

// SystemPrompt renders the system message content for the tenant.
func (p *PromptBuilder) SystemPrompt(tenant Tenant) string {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	captureRule := reactiveCaptureRule
	if p.ProactiveKnowledgeCapture {
		captureRule = proactiveCaptureRule
	}

	return strings.TrimSpace(fmt.Sprintf(
		systemPromptTemplate,
		tenant.DisplayName,
		captureRule,
		now().Format("2006-01-02"),
	))
}

// EnsureSystemPrompt guarantees exactly one system message at position 0.
// If the list already contains a system message it is returned unchanged;
// otherwise a new list is returned with a generated system message prepended.
// The input slice is never mutated.
func (p *PromptBuilder) EnsureSystemPrompt(messages []openai.ChatCompletionMessage, tenant Tenant) []openai.ChatCompletionMessage {
	for _, message := range messages {
		if message.Role == openai.ChatMessageRoleSystem {
			return messages
		}
	}

	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: p.SystemPrompt(tenant),
	})
	out = append(out, messages...)
	return out
}
