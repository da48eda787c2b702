package engine

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// LLMConfig holds configuration for the LLM completion client
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// CompletionClient is the stateless request/response interface to the LLM.
// Satisfied by *openai.Client; tests substitute a stub.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewCompletionClient creates an OpenAI-backed completion client
func NewCompletionClient(config LLMConfig) *openai.Client {
	openaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		openaiConfig.BaseURL = config.BaseURL
	}
	return openai.NewClientWithConfig(openaiConfig)
}
