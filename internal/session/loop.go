package session

import (
	"context"
	"encoding/json"

	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/permission"
	"github.com/flowcore/workflowcore/internal/provider"
	"github.com/flowcore/workflowcore/internal/toolexec"
)

// Cancel aborts the current provider request, transitions the session
// to Cancelled, and re-runs orphan repair so the history is wire-valid
// again before any later SendAndStream (spec section 4.5
// "Cancellation").
func (s *Session) Cancel() {
	s.Provider.Cancel()
	s.mu.Lock()
	s.history = RepairOrphans(s.history)
	s.state = StateCancelled
	s.mu.Unlock()
}

// SendAndStream runs the send-and-stream loop for one user message,
// emitting events to emit as it progresses, per spec section 4.5.
// It blocks until the loop reaches loop_complete (normal end or
// cancellation) or an unrecoverable error occurs.
func (s *Session) SendAndStream(ctx context.Context, executionID, userMessage string, emit func(Event)) (finalText string, err error) {
	s.mu.Lock()
	s.state = StateStreaming
	s.history = append(s.history, provider.ChatMessage{Role: provider.WireRoleUser, Content: userMessage})
	s.mu.Unlock()

	iteration := 0
	var previousContent string

	for {
		iteration++

		s.mu.Lock()
		if s.state == StateCancelled {
			s.mu.Unlock()
			emit(Event{Type: EventLoopComplete})
			return previousContent, nil
		}
		s.history = RepairOrphans(s.history)
		hist := append([]provider.ChatMessage{}, s.history...)
		s.mu.Unlock()

		if iteration >= 2 {
			emit(Event{Type: EventIterationStart, Iteration: iteration, PreviousIterationContent: previousContent})
		}

		resp, streamErr := s.Provider.ChatStream(ctx, provider.ChatRequest{
			Messages:     hist,
			SystemPrompt: s.SystemPrompt(),
			MaxTokens:    s.MaxTokens,
			Temperature:  s.Temperature,
			Cwd:          s.Cwd,
		}, func(ev provider.StreamEvent) {
			if ev.Type == provider.EventTextDelta {
				emit(Event{Type: EventMessageDelta, TextDelta: ev.TextDelta})
			}
		})
		if streamErr != nil {
			emit(Event{Type: EventError, Err: streamErr})
			return previousContent, streamErr
		}

		assistantMsg := provider.ChatMessage{Role: provider.WireRoleAssistant, Content: resp.Message.Content, ToolCalls: resp.Message.ToolCalls}
		s.mu.Lock()
		s.history = append(s.history, assistantMsg)
		s.mu.Unlock()
		emit(Event{Type: EventMessageEnd})
		previousContent = resp.Message.Content

		if resp.StopReason != provider.StopToolUse {
			emit(Event{Type: EventIterationComplete, Iteration: iteration, HasToolUse: false})
			emit(Event{Type: EventLoopComplete})
			s.setState(StateIdle)
			return resp.Message.Content, nil
		}

		emit(Event{Type: EventIterationComplete, Iteration: iteration, HasToolUse: true})
		s.setState(StateWaitingForTool)

		results := make([]models.ToolResult, 0, len(resp.Message.ToolCalls))
		for _, tc := range resp.Message.ToolCalls {
			results = append(results, s.runToolCall(ctx, executionID, tc, emit))
		}
		s.mu.Lock()
		s.history = append(s.history, provider.ChatMessage{Role: provider.WireRoleTool, ToolResults: results})
		s.mu.Unlock()
		s.setState(StateStreaming)
	}
}

func (s *Session) runToolCall(ctx context.Context, executionID string, tc models.ToolCall, emit func(Event)) models.ToolResult {
	targetPath := extractTargetPath(tc.Input)
	decision := s.Permissions.Check(tc.Name, s.Key.String(), targetPath)

	autoApproved := decision.Allowed
	scope := models.ApprovalScope("")
	if decision.Approval != nil {
		scope = decision.Approval.Scope
	}

	if !decision.Allowed {
		emit(Event{Type: EventToolUseRequest, ToolUse: &tc})
		s.setState(StateAwaitingPermission)
		pending := s.Permissions.Request(permission.ToolUse{ID: tc.ID, ToolName: tc.Name})
		result := <-pending
		s.setState(StateWaitingForTool)
		if !result.Allowed {
			tr := models.ToolResult{ToolUseID: tc.ID, Content: "User denied permission", IsError: true}
			emit(Event{Type: EventToolUseResult, ToolResult: &tr})
			return tr
		}
		autoApproved = false
	}

	emit(Event{Type: EventToolUseStarted, ToolUse: &tc, AutoApproved: autoApproved, ApprovalScope: scope})

	res := s.Executor.Execute(ctx, toolexec.ToolUse{
		ID:     tc.ID,
		Name:   tc.Name,
		Input:  toMap(tc.Input),
		Caller: toolexec.Caller{Type: toolexec.CallerAgent, AgentID: s.Agent.ID},
		Cwd:    s.Cwd,
	}, executionID)

	tr := models.ToolResult{ToolUseID: tc.ID, IsError: !res.Success}
	if res.Success {
		tr.Content = marshalResult(res.Result)
	} else {
		tr.Content = res.Error
	}
	emit(Event{Type: EventToolUseResult, ToolResult: &tr})
	return tr
}

func extractTargetPath(input json.RawMessage) string {
	var m map[string]any
	if err := json.Unmarshal(input, &m); err != nil {
		return ""
	}
	for _, key := range []string{"file_path", "path", "filePath"} {
		if v, ok := m[key].(string); ok {
			return v
		}
	}
	return ""
}

func toMap(input json.RawMessage) map[string]any {
	var m map[string]any
	if len(input) == 0 {
		return map[string]any{}
	}
	if err := json.Unmarshal(input, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func marshalResult(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
