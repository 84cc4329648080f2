package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
)

// ErrNotRunning is returned by ExecuteStep when the execution's status
// is not "running" (spec section 4.8 step 1).
var ErrNotRunning = errors.New("workflow: execution is not running")

// HandlerResult is one node-type handler's outcome.
type HandlerResult struct {
	Output       string
	NextNodeID   string
	ShouldPause  bool
	WorkflowDone bool
	TokensIn     int
	TokensOut    int
}

// Handler implements one node type's contract (spec section 4.8.1).
type Handler func(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error)

var handlers = map[models.StepType]Handler{
	models.StepTrigger:        triggerHandler,
	models.StepAgent:          agentHandler,
	models.StepRouter:         routerHandler,
	models.StepCheckpoint:     checkpointHandler,
	models.StepDecision:       decisionHandler,
	models.StepAwaitInput:     awaitInputHandler,
	models.StepReviewPanel:    reviewPanelHandler,
	models.StepSplit:          splitHandler,
	models.StepMerge:          mergeHandler,
	models.StepLoop:           loopHandler,
	models.StepCondition:      conditionHandler,
	models.StepTransform:      transformHandler,
	models.StepOutput:         outputHandler,
	models.StepPermissionGate: permissionGateHandler,
}

// ExecuteStep advances executionId by one unit of progress, per spec
// section 4.8 `executeStep`.
func (s *Scheduler) ExecuteStep(ctx context.Context, executionID string) error {
	exec, err := s.store.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("workflow: load execution: %w", err)
	}
	if exec.Status != models.ExecutionRunning {
		return ErrNotRunning
	}

	wf, err := s.store.GetWorkflow(ctx, exec.WorkflowID)
	if err != nil {
		return fmt.Errorf("workflow: load workflow: %w", err)
	}

	step, found, err := s.selectStep(ctx, wf, exec)
	if err != nil {
		return err
	}
	if !found {
		exec.Status = models.ExecutionCompleted
		now := s.now()
		exec.CompletedAt = &now
		if err := s.store.SaveExecution(ctx, exec); err != nil {
			return err
		}
		s.CleanupExecution(executionID)
		s.recordExecutionFinished(exec.WorkflowID, "completed", now.Sub(exec.CreatedAt))
		s.publish("workflow/completed", map[string]any{"executionId": executionID})
		return nil
	}

	if !exec.WithinIterationBudget() {
		exec.Status = models.ExecutionFailed
		exec.ErrorMessage = "iteration budget exceeded"
		_ = s.store.SaveExecution(ctx, exec)
		s.CleanupExecution(executionID)
		s.recordExecutionFinished(exec.WorkflowID, "failed", s.now().Sub(exec.CreatedAt))
		s.publish("workflow/failed", map[string]any{"executionId": executionID, "reason": exec.ErrorMessage})
		return fmt.Errorf("workflow: %s", exec.ErrorMessage)
	}

	ne := &models.NodeExecution{
		ID:              uuid.NewString(),
		ExecutionID:     executionID,
		NodeID:          step.ID,
		NodeType:        step.Type,
		Status:          models.NodeRunning,
		IterationNumber: exec.IterationCount,
		StartedAt:       s.now(),
	}
	if err := s.store.CreateNodeExecution(ctx, ne); err != nil {
		return fmt.Errorf("workflow: create node execution: %w", err)
	}

	handler, ok := handlers[step.Type]
	if !ok {
		return s.failStep(ctx, exec, ne, fmt.Errorf("workflow: no handler for step type %q", step.Type))
	}

	result, err := handler(ctx, s, wf, exec, step)
	if err != nil {
		return s.failStep(ctx, exec, ne, err)
	}

	completedAt := s.now()
	ne.Status = models.NodeCompleted
	ne.Output = result.Output
	ne.CompletedAt = &completedAt
	ne.DurationMs = completedAt.Sub(ne.StartedAt).Milliseconds()
	ne.TokensIn = result.TokensIn
	ne.TokensOut = result.TokensOut
	if err := s.store.UpdateNodeExecution(ctx, ne); err != nil {
		return fmt.Errorf("workflow: update node execution: %w", err)
	}
	s.recordNodeExecuted(step.Type, "completed", completedAt.Sub(ne.StartedAt))

	exec.CurrentNodeID = result.NextNodeID
	if result.ShouldPause {
		exec.Status = models.ExecutionAwaitInput
	}
	if result.WorkflowDone {
		exec.Status = models.ExecutionCompleted
		completed := s.now()
		exec.CompletedAt = &completed
		s.CleanupExecution(executionID)
		s.recordExecutionFinished(exec.WorkflowID, "completed", completed.Sub(exec.CreatedAt))
	}
	if err := s.store.SaveExecution(ctx, exec); err != nil {
		return fmt.Errorf("workflow: save execution: %w", err)
	}

	if result.ShouldPause {
		s.publish("workflow/awaiting_input", map[string]any{"executionId": executionID, "nodeId": step.ID})
	}
	if result.WorkflowDone {
		s.publish("workflow/completed", map[string]any{"executionId": executionID})
	}
	return nil
}

func (s *Scheduler) failStep(ctx context.Context, exec *models.Execution, ne *models.NodeExecution, cause error) error {
	completedAt := s.now()
	ne.Status = models.NodeFailed
	ne.Output = cause.Error()
	ne.CompletedAt = &completedAt
	_ = s.store.UpdateNodeExecution(ctx, ne)
	s.recordNodeExecuted(ne.NodeType, "failed", completedAt.Sub(ne.StartedAt))

	exec.Status = models.ExecutionFailed
	exec.ErrorMessage = cause.Error()
	_ = s.store.SaveExecution(ctx, exec)
	s.CleanupExecution(exec.ID)
	s.recordExecutionFinished(exec.WorkflowID, "failed", completedAt.Sub(exec.CreatedAt))
	s.publish("workflow/failed", map[string]any{"executionId": exec.ID, "nodeId": ne.NodeID, "error": cause.Error()})
	return fmt.Errorf("workflow: node %s failed: %w", ne.NodeID, cause)
}

// selectStep implements steps 2-3 of executeStep: honor an explicit
// currentNodeId not yet completed this iteration, else apply the
// readiness rule over static and dynamic steps.
func (s *Scheduler) selectStep(ctx context.Context, wf *models.Workflow, exec *models.Execution) (models.WorkflowStep, bool, error) {
	iterExecs, err := s.store.NodeExecutionsForIteration(ctx, exec.ID, exec.IterationCount)
	if err != nil {
		return models.WorkflowStep{}, false, fmt.Errorf("workflow: load iteration node executions: %w", err)
	}
	done := completedSet(iterExecs)

	if exec.CurrentNodeID != "" && !done[exec.CurrentNodeID] {
		if step, ok := s.stepByID(wf, exec.ID, exec.CurrentNodeID); ok {
			return step, true, nil
		}
	}

	steps := s.stepsFor(wf, exec.ID)
	step, ok := nextReadyStep(steps, done)
	return step, ok, nil
}

// ResumeAfterCheckpoint clears the pause once a checkpoint has been
// decided, returning the execution to running with currentNodeId
// unchanged so the checkpoint's dependents become ready next step.
func (s *Scheduler) ResumeAfterCheckpoint(ctx context.Context, executionID string) error {
	exec, err := s.store.GetExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.Status != models.ExecutionAwaitInput {
		return fmt.Errorf("workflow: execution %s is not awaiting input", executionID)
	}
	exec.Status = models.ExecutionRunning
	return s.store.SaveExecution(ctx, exec)
}

// ResumeAfterInput implements the await_input resume contract (spec
// section 4.8.1): increments the iteration, resets currentNodeId to
// the workflow's first step, and resumes running. This is what makes
// multi-turn conversation loops work.
func (s *Scheduler) ResumeAfterInput(ctx context.Context, executionID string) error {
	exec, err := s.store.GetExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.Status != models.ExecutionAwaitInput {
		return fmt.Errorf("workflow: execution %s is not awaiting input", executionID)
	}
	wf, err := s.store.GetWorkflow(ctx, exec.WorkflowID)
	if err != nil {
		return err
	}
	if len(wf.Steps) == 0 {
		return fmt.Errorf("workflow: %s has no steps", wf.ID)
	}
	exec.IterationCount++
	exec.CurrentNodeID = wf.Steps[0].ID
	exec.Status = models.ExecutionRunning
	return s.store.SaveExecution(ctx, exec)
}
