// Package nlp provides language model clients used for answer synthesis and
// cross-encoder scoring.
package nlp

import (
	"context"

	"github.com/soundprediction/recall/pkg/types"
)

// Client is the interface language model providers implement.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// Close cleans up any resources.
	Close() error
}

const (
	// RoleSystem represents a system message.
	RoleSystem = "system"
	// RoleUser represents a user message.
	RoleUser = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant = "assistant"
)

// Config holds common language model configuration.
type Config struct {
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) types.Message {
	return types.Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) types.Message {
	return types.Message{Role: RoleUser, Content: content}
}
