package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
)

// agentHandler resolves the node's agent, builds a prompt from prior
// agent outputs, streams the turn with per-iteration message
// materialization (spec section 4.8.2), and handles any handoff the
// agent requested (spec section 4.8.3). Spec section 4.8.1 "agent".
func agentHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	agentID := ResolveAgentID(step, wf)
	prompt := buildAgentPrompt(ctx, s, exec, step)

	tracker := newMessageTracker(s, exec.ID, agentID)
	result, err := s.runner.RunAgentTurn(ctx, AgentTurnRequest{
		ExecutionID: exec.ID,
		AgentID:     agentID,
		Prompt:      prompt,
		OnMessageEvent: func(ev MessageEvent) {
			tracker.handle(ctx, ev)
		},
	})
	if err != nil {
		return HandlerResult{}, fmt.Errorf("workflow: agent node %s: %w", step.ID, err)
	}
	if err := tracker.finish(ctx, result.FinalText); err != nil {
		return HandlerResult{}, err
	}

	if err := s.store.CreateContextItem(ctx, &models.ContextItem{
		ID:              uuid.NewString(),
		ExecutionID:     exec.ID,
		ItemType:        models.ItemAgentOutput,
		Content:         result.FinalText,
		AgentID:         agentID,
		IterationNumber: exec.IterationCount,
		IsActive:        true,
		IsComplete:      true,
	}); err != nil {
		return HandlerResult{}, err
	}

	if result.HandoffRequest != nil {
		if next, ok := s.handleHandoff(exec, step, *result.HandoffRequest); ok {
			return HandlerResult{Output: result.FinalText, NextNodeID: next, TokensIn: result.TokensIn, TokensOut: result.TokensOut}, nil
		}
	}

	return HandlerResult{Output: result.FinalText, TokensIn: result.TokensIn, TokensOut: result.TokensOut}, nil
}

// buildAgentPrompt concatenates prior agent_output context items into
// a prompt, falling back to the execution's initial input for a root
// agent node.
func buildAgentPrompt(ctx context.Context, s *Scheduler, exec *models.Execution, step models.WorkflowStep) string {
	items, err := s.store.ContextItems(ctx, exec.ID)
	if err != nil {
		return exec.InitialInput
	}
	var b strings.Builder
	if len(step.Depends) == 0 {
		b.WriteString(exec.InitialInput)
	}
	for _, item := range items {
		if !item.IsActive || item.ItemType != models.ItemAgentOutput {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(item.Content)
	}
	if step.Prompt != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(step.Prompt)
	}
	return b.String()
}

// handleHandoff checks the per-execution depth counter, and if within
// MaxHandoffDepth, injects a dynamic agent step and a context item
// carrying the handoff's context for the target agent (spec section
// 4.8.3). Returns the dynamic node id and true, or false if the depth
// limit silently suppresses the delegation.
func (s *Scheduler) handleHandoff(exec *models.Execution, step models.WorkflowStep, req HandoffRequest) (string, bool) {
	if s.incHandoffDepth(exec.ID) > MaxHandoffDepth {
		return "", false
	}

	s.recordAgentHandoff()
	dynamicID := fmt.Sprintf("handoff-%s-%d-%s", exec.ID, s.now().UnixNano(), req.AgentID)
	s.addDynamicNode(exec.ID, models.WorkflowStep{
		ID:      dynamicID,
		Type:    models.StepAgent,
		Agent:   req.AgentID,
		Prompt:  req.Message,
		Depends: []string{step.ID},
	})

	if req.Context != "" {
		_ = s.store.CreateContextItem(context.Background(), &models.ContextItem{
			ID:              uuid.NewString(),
			ExecutionID:     exec.ID,
			ItemType:        models.ItemSystem,
			Content:         req.Context,
			AgentID:         req.AgentID,
			IterationNumber: exec.IterationCount,
			IsActive:        true,
			IsComplete:      true,
		})
	}

	return dynamicID, true
}

// messageTracker materializes one chat message per tool-use iteration
// within an agent node's streaming turn (spec section 4.8.2).
type messageTracker struct {
	s           *Scheduler
	executionID string
	agentID     string
	current     *models.Message
	buffer      strings.Builder
}

func newMessageTracker(s *Scheduler, executionID, agentID string) *messageTracker {
	return &messageTracker{s: s, executionID: executionID, agentID: agentID}
}

func (t *messageTracker) handle(ctx context.Context, ev MessageEvent) {
	switch ev.Type {
	case MessageStarted:
		t.startMessage(ctx)
	case MessageDelta:
		t.buffer.WriteString(ev.TextDelta)
		if t.current == nil {
			t.startMessage(ctx)
		}
		t.current.Content = t.buffer.String()
		_ = t.s.store.UpdateMessage(ctx, t.current)
	case MessageToolIteration:
		if t.current != nil {
			t.current.IsComplete = true
			t.current.IsToolUseIter = true
			_ = t.s.store.UpdateMessage(ctx, t.current)
		}
		t.current = nil
		t.buffer.Reset()
	case MessageFinal:
		// handled by finish, once the runner returns its final text.
	}
}

func (t *messageTracker) startMessage(ctx context.Context) {
	t.current = &models.Message{
		ID:          uuid.NewString(),
		ExecutionID: t.executionID,
		Role:        models.RoleAgent,
		AgentID:     t.agentID,
		CreatedAt:   t.s.now(),
	}
	_ = t.s.store.CreateMessage(ctx, t.current)
}

// finish completes the final iteration's message with finalText,
// creating one if no message was ever started (a turn with no
// streamed deltas still needs a final chat-visible record).
func (t *messageTracker) finish(ctx context.Context, finalText string) error {
	if t.current == nil {
		t.startMessage(ctx)
	}
	t.current.Content = finalText
	t.current.IsComplete = true
	t.current.IsFinalIter = true
	return t.s.store.UpdateMessage(ctx, t.current)
}
