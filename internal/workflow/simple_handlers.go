package workflow

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
)

// triggerHandler passes input through; the next node is whatever the
// readiness rule resolves next (spec section 4.8.1 "trigger").
func triggerHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	return HandlerResult{Output: exec.InitialInput}, nil
}

// routerHandler is a no-op pass-through with a dependency-resolved
// next node (spec section 4.8.1 "router").
func routerHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	return HandlerResult{Output: exec.InitialInput}, nil
}

// transformHandler is a pass-through hook for user-supplied transforms
// (spec section 4.8.1 "transform").
func transformHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	return HandlerResult{Output: exec.InitialInput}, nil
}

// permissionGateHandler is a pass-through placeholder; the real
// permission gating happens at the tool-call boundary in
// internal/permission and internal/toolexec (spec section 4.8.1
// "permission_gate").
func permissionGateHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	return HandlerResult{Output: exec.InitialInput}, nil
}

// outputHandler records the incoming context as the execution's final
// output and terminates the workflow (spec section 4.8.1 "output").
func outputHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	output := latestContent(ctx, s, exec.ID)
	exec.FinalOutput = output
	if err := s.store.CreateContextItem(ctx, &models.ContextItem{
		ID:              uuid.NewString(),
		ExecutionID:     exec.ID,
		ItemType:        models.ItemSystem,
		Content:         output,
		IterationNumber: exec.IterationCount,
		IsActive:        true,
		IsComplete:      true,
	}); err != nil {
		return HandlerResult{}, err
	}
	return HandlerResult{Output: output, WorkflowDone: true}, nil
}

// splitHandler notifies that a fan-out has begun and passes input
// through; the dependency-resolved readiness rule lets multiple
// branches become ready next (spec section 4.8.1 "split").
func splitHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	s.publish("workflow/split/started", map[string]any{"executionId": exec.ID, "nodeId": step.ID})
	return HandlerResult{Output: exec.InitialInput}, nil
}

// conditionHandler evaluates a simple non-empty-input predicate and
// branches to the dependent step whose id contains "true" or "false"
// (spec section 4.8.1 "condition").
func conditionHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	input := latestContent(ctx, s, exec.ID)
	branchWord := "false"
	if strings.TrimSpace(input) != "" {
		branchWord = "true"
	}
	if target, ok := step.Branches[branchWord]; ok {
		return HandlerResult{Output: input, NextNodeID: target}, nil
	}
	for _, candidate := range s.stepsFor(wf, exec.ID) {
		for _, dep := range candidate.Depends {
			if dep == step.ID && strings.Contains(candidate.ID, branchWord) {
				return HandlerResult{Output: input, NextNodeID: candidate.ID}, nil
			}
		}
	}
	return HandlerResult{Output: input}, nil
}

// latestContent returns the most recent active context item's content
// for an execution, or its initial input if none exists yet.
func latestContent(ctx context.Context, s *Scheduler, executionID string) string {
	items, err := s.store.ContextItems(ctx, executionID)
	if err != nil || len(items) == 0 {
		return ""
	}
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].IsActive {
			return items[i].Content
		}
	}
	return ""
}
