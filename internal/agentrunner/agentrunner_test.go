package agentrunner

import (
	"context"
	"testing"

	"github.com/flowcore/workflowcore/internal/agents"
	"github.com/flowcore/workflowcore/internal/clock"
	"github.com/flowcore/workflowcore/internal/ecp"
	"github.com/flowcore/workflowcore/internal/permission"
	"github.com/flowcore/workflowcore/internal/provider"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
	"github.com/flowcore/workflowcore/internal/toolexec"
	"github.com/flowcore/workflowcore/internal/workflow"
)

type noopECP struct{}

func (noopECP) Request(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

var _ ecp.Client = noopECP{}

func newTestRunner(prov provider.Provider) *Runner {
	registry := agents.New()
	perms := permission.NewService(clock.Real{})
	translator := toolcatalog.NewTranslator("anthropic")
	executor := toolexec.NewExecutor(translator, noopECP{})
	return New(registry, perms, prov, translator, executor)
}

func TestRunAgentTurn_ReturnsFinalText(t *testing.T) {
	fake := provider.NewFake("test-model", provider.ChatResponse{
		Message:    provider.ChatMessage{Role: provider.WireRoleAssistant, Content: "done"},
		StopReason: provider.StopEndTurn,
	})
	r := newTestRunner(fake)

	var deltas []string
	res, err := r.RunAgentTurn(context.Background(), workflow.AgentTurnRequest{
		ExecutionID: "exec-1",
		AgentID:     "assistant",
		Prompt:      "say hi",
		OnMessageEvent: func(ev workflow.MessageEvent) {
			if ev.Type == workflow.MessageDelta {
				deltas = append(deltas, ev.TextDelta)
			}
		},
	})
	if err != nil {
		t.Fatalf("RunAgentTurn() error = %v", err)
	}
	if res.FinalText != "done" {
		t.Fatalf("FinalText = %q, want %q", res.FinalText, "done")
	}
	if len(deltas) == 0 || deltas[0] != "done" {
		t.Fatalf("deltas = %v, want to observe the streamed text", deltas)
	}
	if res.HandoffRequest != nil {
		t.Fatalf("HandoffRequest = %+v, want nil", res.HandoffRequest)
	}
}

func TestRunAgentTurn_UnknownAgentErrors(t *testing.T) {
	fake := provider.NewFake("test-model")
	r := newTestRunner(fake)

	_, err := r.RunAgentTurn(context.Background(), workflow.AgentTurnRequest{
		ExecutionID: "exec-1",
		AgentID:     "no-such-agent",
		Prompt:      "say hi",
	})
	if err == nil {
		t.Fatal("RunAgentTurn() error = nil, want unknown agent error")
	}
}

func TestRunAgentTurn_ReusesSessionAcrossCalls(t *testing.T) {
	fake := provider.NewFake("test-model",
		provider.ChatResponse{Message: provider.ChatMessage{Role: provider.WireRoleAssistant, Content: "first"}, StopReason: provider.StopEndTurn},
		provider.ChatResponse{Message: provider.ChatMessage{Role: provider.WireRoleAssistant, Content: "second"}, StopReason: provider.StopEndTurn},
	)
	r := newTestRunner(fake)
	ctx := context.Background()

	if _, err := r.RunAgentTurn(ctx, workflow.AgentTurnRequest{ExecutionID: "exec-1", AgentID: "assistant", Prompt: "one"}); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := r.RunAgentTurn(ctx, workflow.AgentTurnRequest{ExecutionID: "exec-1", AgentID: "assistant", Prompt: "two"}); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	s, err := r.sessionFor("exec-1", "assistant")
	if err != nil {
		t.Fatalf("sessionFor() error = %v", err)
	}
	// user(one) + assistant(first) + user(two) + assistant(second)
	if got := len(s.History()); got != 4 {
		t.Fatalf("History() len = %d, want 4 (same session reused across turns)", got)
	}
}
