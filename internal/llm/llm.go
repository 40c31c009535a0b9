package llm

import "context"

// Roles accepted in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// Answer replies to the conversation using only contextText as grounding.
	Answer(ctx context.Context, messages []Message, contextText string) (string, error)
}
