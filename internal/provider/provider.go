// Package provider defines the narrow AI provider contract the core
// consumes (spec section 6). Concrete HTTP/stream transports are out of
// scope per spec section 1 and live outside this module; this package
// only specifies the interface plus a deterministic in-memory fake used
// by tests, modeled on the teacher's internal/agent.LLMProvider shape.
package provider

import (
	"context"

	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
)

// StopReason is why a provider ended its turn.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Usage reports token accounting for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// WireRole is a provider-facing message role. It is distinct from
// models.Role (the chat-display role) because the wire protocol has a
// tool role the chat-display model has no use for.
type WireRole string

const (
	WireRoleUser      WireRole = "user"
	WireRoleAssistant WireRole = "assistant"
	WireRoleSystem    WireRole = "system"
	WireRoleTool      WireRole = "tool"
)

// ChatMessage is one turn in a provider request/response.
type ChatMessage struct {
	Role        WireRole
	Content     string
	ToolCalls   []models.ToolCall
	ToolResults []models.ToolResult
}

// ChatRequest is a full completion request.
type ChatRequest struct {
	Messages     []ChatMessage
	SystemPrompt string
	Tools        []toolcatalog.ProviderTool
	MaxTokens    int
	Temperature  float64
	Cwd          string
}

// ChatResponse is the provider's answer to a ChatRequest.
type ChatResponse struct {
	Message    ChatMessage
	StopReason StopReason
	Usage      *Usage
}

// StreamEventType names the events ChatStream emits.
type StreamEventType string

const (
	EventTextDelta         StreamEventType = "text_delta"
	EventToolUseStart      StreamEventType = "tool_use_start"
	EventToolUseInputDelta StreamEventType = "tool_use_input_delta"
	EventToolUseEnd        StreamEventType = "tool_use_end"
	EventMessageEnd        StreamEventType = "message_end"
)

// StreamEvent is one increment of a streaming completion.
type StreamEvent struct {
	Type       StreamEventType
	TextDelta  string
	ToolUse    *models.ToolCall
	InputDelta string
}

// Capabilities describes what a provider supports.
type Capabilities struct {
	ToolUse          bool
	Streaming        bool
	Vision           bool
	SystemMessages   bool
	MaxContextTokens int
	MaxOutputTokens  int
}

// Provider is the narrow contract the AI Session Manager consumes.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest, onEvent func(StreamEvent)) (ChatResponse, error)
	Cancel()
	Capabilities() Capabilities
	IsAvailable() bool
	AvailableModels() []string
	// GetSessionID/SetSessionID support CLI-session capture (spec
	// section 4.5) for providers with their own server-side session
	// concept. ok is false when the provider has none.
	GetSessionID() (id string, ok bool)
	SetSessionID(id string)
}
