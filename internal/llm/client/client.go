package llmclient

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn in the OpenAI-compatible shape shared by providers.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a single completion call.
// APIKey overrides the client's default key so callers can rotate keys per attempt.
type ChatRequest struct {
	APIKey      string
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// ChatClient defines the interface for LLM providers.
type ChatClient interface {
	Name() string
	Close() error
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
