package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/review"
)

// reviewPanelHandler runs the review panel (spec section 4.7) for
// step.ReviewConfig, records the outcome, and routes per
// outcomes[outcome].action (spec section 4.8.1 "review_panel").
func reviewPanelHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	if step.ReviewConfig == nil {
		return HandlerResult{}, errMissingReviewConfig(step.ID)
	}

	panel := &models.ReviewPanelExecution{
		ID:     uuid.NewString(),
		Config: *step.ReviewConfig,
		Status: models.ReviewPanelRunning,
	}

	started := s.now()
	outcome, summary, err := review.RunPanel(ctx, panel, s.reviewerFn(ctx, exec.ID, step.ID))
	if err != nil {
		return HandlerResult{}, err
	}
	if err := s.store.CreateReviewPanelExecution(ctx, panel); err != nil {
		return HandlerResult{}, err
	}
	s.recordReviewPanel(string(outcome), s.now().Sub(started))
	s.publish("workflow/review_panel/completed", map[string]any{
		"executionId": exec.ID, "nodeId": step.ID, "outcome": string(outcome),
	})

	route, ok := step.ReviewConfig.Outcomes[outcome]
	if !ok {
		return HandlerResult{Output: summary, WorkflowDone: outcome == models.OutcomeApproved}, nil
	}

	switch route.Action {
	case models.ActionLoop:
		exec.IterationCount++
		return HandlerResult{Output: summary, NextNodeID: route.Target}, nil
	case models.ActionContinue:
		next := route.Target
		if next == "" {
			if ns, ok := nextReadyStep(s.stepsFor(wf, exec.ID), completedSet(nil)); ok {
				next = ns.ID
			}
		}
		return HandlerResult{Output: summary, NextNodeID: next}, nil
	case models.ActionPause:
		return HandlerResult{Output: summary, ShouldPause: true}, nil
	case models.ActionComplete:
		return HandlerResult{Output: summary, WorkflowDone: true}, nil
	default:
		return HandlerResult{Output: summary}, nil
	}
}

type reviewConfigError struct{ nodeID string }

func (e *reviewConfigError) Error() string {
	return "workflow: review_panel node " + e.nodeID + " has no ReviewConfig"
}

func errMissingReviewConfig(nodeID string) error { return &reviewConfigError{nodeID: nodeID} }
