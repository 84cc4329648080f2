package provider

import (
	"context"
	"sync"
)

// Fake is a deterministic in-memory Provider for tests: callers queue
// responses up front and Chat/ChatStream pop them in order, grounded on
// the teacher's in-memory store fakes (internal/sessions/memory.go).
type Fake struct {
	mu        sync.Mutex
	name      string
	responses []ChatResponse
	calls     []ChatRequest
	cancelled bool
	sessionID string
	caps      Capabilities
	models    []string
}

// NewFake returns a Fake provider named name with the given scripted
// responses, returned in order across successive Chat/ChatStream calls.
func NewFake(name string, responses ...ChatResponse) *Fake {
	return &Fake{name: name, responses: responses, caps: Capabilities{ToolUse: true, Streaming: true, SystemMessages: true, MaxContextTokens: 200000, MaxOutputTokens: 16384}, models: []string{name}}
}

func (f *Fake) Name() string { return f.name }

func (f *Fake) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		return ChatResponse{Message: ChatMessage{Role: WireRoleAssistant, Content: "ok"}, StopReason: StopEndTurn}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *Fake) ChatStream(ctx context.Context, req ChatRequest, onEvent func(StreamEvent)) (ChatResponse, error) {
	resp, err := f.Chat(ctx, req)
	if err != nil {
		return resp, err
	}
	if resp.Message.Content != "" {
		onEvent(StreamEvent{Type: EventTextDelta, TextDelta: resp.Message.Content})
	}
	for _, tc := range resp.Message.ToolCalls {
		tc := tc
		onEvent(StreamEvent{Type: EventToolUseStart, ToolUse: &tc})
		onEvent(StreamEvent{Type: EventToolUseEnd, ToolUse: &tc})
	}
	onEvent(StreamEvent{Type: EventMessageEnd})
	return resp, nil
}

func (f *Fake) Cancel() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
}

func (f *Fake) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *Fake) Capabilities() Capabilities { return f.caps }
func (f *Fake) IsAvailable() bool          { return true }
func (f *Fake) AvailableModels() []string  { return f.models }

func (f *Fake) GetSessionID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID, f.sessionID != ""
}

func (f *Fake) SetSessionID(id string) {
	f.mu.Lock()
	f.sessionID = id
	f.mu.Unlock()
}

// Calls returns every ChatRequest this fake has received, for test
// assertions.
func (f *Fake) Calls() []ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChatRequest{}, f.calls...)
}
