package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
)

// checkpointHandler creates a Checkpoint and pauses the execution until
// ResumeAfterCheckpoint is called (spec section 4.8.1 "checkpoint /
// human").
func checkpointHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	cp := &models.Checkpoint{
		ID:             uuid.NewString(),
		ExecutionID:    exec.ID,
		CheckpointType: step.CheckpointType,
		PromptMessage:  step.Prompt,
	}
	if err := s.store.CreateCheckpoint(ctx, cp); err != nil {
		return HandlerResult{}, err
	}
	s.publish("workflow/checkpoint/created", map[string]any{"executionId": exec.ID, "checkpointId": cp.ID, "nodeId": step.ID})
	return HandlerResult{Output: latestContent(ctx, s, exec.ID), NextNodeID: step.ID, ShouldPause: true}, nil
}

// awaitInputHandler creates a system prompt message and pauses the
// execution awaiting user input; ResumeAfterInput restarts the DAG
// from its first step on the next iteration (spec section 4.8.1
// "await_input").
func awaitInputHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	msg := &models.Message{
		ID:          uuid.NewString(),
		ExecutionID: exec.ID,
		Role:        models.RoleSystem,
		Content:     step.Prompt,
		IsComplete:  true,
		IsFinalIter: true,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return HandlerResult{}, err
	}
	return HandlerResult{Output: step.Prompt, ShouldPause: true}, nil
}
