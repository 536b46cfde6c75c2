package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a conversation turn.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ChatMessage is the provider-agnostic conversation turn passed around the
// session. An assistant turn that carries ToolCalls must be immediately
// followed by its RoleTool result turn(s); the memory package enforces this.
type ChatMessage struct {
	Role    MessageRole // Role of the turn's author
	Content string      // Turn content
	Name    string      // Tool call ID for RoleTool turns
	// ToolCalls stores the tool calls made by this assistant turn. Providers
	// require them when the history is converted back to wire format.
	ToolCalls []ToolCall
}

// Validate checks if the ChatMessage is structurally valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if m.Role == RoleTool && m.Name == "" {
		return fmt.Errorf("tool messages must have a Name field")
	}
	return nil
}

// IsToolCallTurn reports whether this is an assistant turn requesting tools.
func (m ChatMessage) IsToolCallTurn() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// ToolCall represents a tool the assistant requested.
type ToolCall struct {
	ID   string // Provider-specific tool call ID
	Name string
	Args map[string]any
}

// LLMResponse is a normalized result of one chat call.
type LLMResponse struct {
	Assistant    ChatMessage
	ToolCalls    []ToolCall // zero or more tool calls requested by the model
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}

// LLMClient abstracts the chosen SDK (OpenAI, Anthropic, ...).
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error)
}

// ChatOptions keeps knobs forwarded to the SDK.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
	// JSONOnly asks the provider for a bare JSON object response where the
	// underlying API supports a response-format switch.
	JSONOnly bool
}

// ToolSchema is the JSON schema the provider expects for function calling.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // raw JSON string
}
