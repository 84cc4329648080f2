package workflow

import (
	"context"
	"encoding/json"

	"github.com/flowcore/workflowcore/internal/models"
)

// mergeHandler combines the outputs of step.Depends per
// step.MergeStrategy (spec section 4.8.1 "merge"). Readiness for merge
// nodes is handled separately by mergeReady in readiness.go.
func mergeHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	iterExecs, err := s.store.NodeExecutionsForIteration(ctx, exec.ID, exec.IterationCount)
	if err != nil {
		return HandlerResult{}, err
	}
	outputs := make(map[string]string, len(step.Depends))
	for _, ne := range iterExecs {
		if ne.Status != models.NodeCompleted {
			continue
		}
		for _, dep := range step.Depends {
			if ne.NodeID == dep {
				outputs[dep] = ne.Output
			}
		}
	}

	if step.MergeStrategy == models.MergeWaitAny {
		for _, dep := range step.Depends {
			if out, ok := outputs[dep]; ok {
				return HandlerResult{Output: out}, nil
			}
		}
		return HandlerResult{}, nil
	}

	merged, err := json.Marshal(outputs)
	if err != nil {
		return HandlerResult{}, err
	}
	return HandlerResult{Output: string(merged)}, nil
}
