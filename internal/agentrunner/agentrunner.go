// Package agentrunner adapts the per-agent session loop
// (internal/session) to workflow.AgentRunner, the narrow interface the
// Workflow Executor drives agent nodes through. Grounded on the
// teacher's internal/multiagent handoff_tool.go pattern: a hidden tool
// the model calls to delegate to another agent, whose invocation the
// orchestration layer intercepts rather than executes for real.
package agentrunner

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowcore/workflowcore/internal/agents"
	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/permission"
	"github.com/flowcore/workflowcore/internal/provider"
	"github.com/flowcore/workflowcore/internal/session"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
	"github.com/flowcore/workflowcore/internal/toolexec"
	"github.com/flowcore/workflowcore/internal/workflow"
)

// delegateToolName is the hidden tool an agent calls to hand a turn off
// to another agent (spec section 4.8.3).
const delegateToolName = "delegate_to_agent"

// Runner builds and caches one session.Session per (executionID,
// agentID) pair and drives it through SendAndStream, translating
// session.Event into workflow.MessageEvent and surfacing any
// delegate_to_agent call as a workflow.HandoffRequest.
type Runner struct {
	registry   *agents.Registry
	perms      *permission.Service
	provider   provider.Provider
	translator toolcatalog.Translator
	executor   *toolexec.Executor

	mu       sync.Mutex
	sessions map[session.Key]*session.Session
}

// New returns a Runner. prov is shared across every agent's session,
// matching the single scripted Fake used by cmd/workflowd; a real
// deployment would resolve a provider per agent.Provider instead, but
// concrete provider transports are out of scope for this module.
func New(registry *agents.Registry, perms *permission.Service, prov provider.Provider, translator toolcatalog.Translator, executor *toolexec.Executor) *Runner {
	return &Runner{
		registry:   registry,
		perms:      perms,
		provider:   prov,
		translator: translator,
		executor:   executor,
		sessions:   make(map[session.Key]*session.Session),
	}
}

func (r *Runner) sessionFor(executionID, agentID string) (*session.Session, error) {
	key := session.Key{ChatID: executionID, AgentID: agentID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s, nil
	}

	agent, ok := r.registry.Get(agentID)
	if !ok {
		return nil, fmt.Errorf("agentrunner: unknown agent %q", agentID)
	}
	agent.ID = agentID
	s := session.New(executionID, &agent, r.provider, r.translator, r.perms, r.executor)
	s.OtherAgents = r.otherAgents(agentID)
	r.sessions[key] = s
	return s, nil
}

func (r *Runner) otherAgents(excludeID string) []models.Agent {
	var out []models.Agent
	for _, a := range r.registry.List() {
		if a.ID != excludeID {
			out = append(out, a)
		}
	}
	return out
}

// RunAgentTurn implements workflow.AgentRunner.
func (r *Runner) RunAgentTurn(ctx context.Context, req workflow.AgentTurnRequest) (workflow.AgentTurnResult, error) {
	s, err := r.sessionFor(req.ExecutionID, req.AgentID)
	if err != nil {
		return workflow.AgentTurnResult{}, err
	}

	var handoff *workflow.HandoffRequest
	capture := func(ctx context.Context, use toolexec.ToolUse) (toolexec.Result, error) {
		handoff = parseHandoff(use.Input)
		return toolexec.Result{Success: true, Result: map[string]any{"delegated": true}}, nil
	}
	r.executor.RegisterHiddenHandler(delegateToolName, capture)

	before := len(s.History())
	finalText, err := s.SendAndStream(ctx, req.ExecutionID, req.Prompt, func(ev session.Event) {
		if req.OnMessageEvent == nil {
			return
		}
		switch ev.Type {
		case session.EventMessageDelta:
			req.OnMessageEvent(workflow.MessageEvent{Type: workflow.MessageDelta, TextDelta: ev.TextDelta})
		case session.EventIterationComplete:
			if ev.HasToolUse {
				req.OnMessageEvent(workflow.MessageEvent{Type: workflow.MessageToolIteration})
			}
		case session.EventLoopComplete:
			req.OnMessageEvent(workflow.MessageEvent{Type: workflow.MessageFinal})
		}
	})
	if err != nil {
		return workflow.AgentTurnResult{}, fmt.Errorf("agentrunner: agent %s turn: %w", req.AgentID, err)
	}

	tokensIn, tokensOut := estimateTokens(s.History()[before:])
	return workflow.AgentTurnResult{
		FinalText:      finalText,
		TokensIn:       tokensIn,
		TokensOut:      tokensOut,
		HandoffRequest: handoff,
	}, nil
}

func parseHandoff(input map[string]any) *workflow.HandoffRequest {
	req := &workflow.HandoffRequest{}
	if v, ok := input["agent_id"].(string); ok {
		req.AgentID = v
	}
	if v, ok := input["message"].(string); ok {
		req.Message = v
	}
	if v, ok := input["context"].(string); ok {
		req.Context = v
	}
	if req.AgentID == "" {
		return nil
	}
	return req
}

// estimateTokens gives a rough word-count token estimate for the
// messages exchanged during one turn, since the narrow Provider
// interface doesn't guarantee Usage on every response (spec section 6
// leaves provider-side token accounting best-effort).
func estimateTokens(msgs []provider.ChatMessage) (in, out int) {
	for _, m := range msgs {
		words := len(splitWords(m.Content))
		switch m.Role {
		case provider.WireRoleUser, provider.WireRoleTool, provider.WireRoleSystem:
			in += words
		case provider.WireRoleAssistant:
			out += words
		}
	}
	return in, out
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}
