package workflow

import "github.com/flowcore/workflowcore/internal/models"

// completedSet captures which node ids have completed within the
// current iteration, used by the readiness rule and merge predicate.
func completedSet(iterExecs []models.NodeExecution) map[string]bool {
	done := make(map[string]bool, len(iterExecs))
	for _, ne := range iterExecs {
		if ne.Status == models.NodeCompleted {
			done[ne.NodeID] = true
		}
	}
	return done
}

// ready reports whether step can run given the set of node ids already
// completed in the current iteration (spec section 4.8 "Readiness
// rule"): none of its depends is missing from that set, and it is not
// itself already completed.
func ready(step models.WorkflowStep, done map[string]bool) bool {
	if done[step.ID] {
		return false
	}
	if step.Type == models.StepMerge {
		return mergeReady(step, done)
	}
	for _, dep := range step.Depends {
		if !done[dep] {
			return false
		}
	}
	return true
}

// mergeReady applies the strategy-specific predicate for merge nodes
// (spec section 4.8.1 "merge"): wait_all requires every dependency
// completed, wait_any requires at least one.
func mergeReady(step models.WorkflowStep, done map[string]bool) bool {
	if len(step.Depends) == 0 {
		return true
	}
	if step.MergeStrategy == models.MergeWaitAny {
		for _, dep := range step.Depends {
			if done[dep] {
				return true
			}
		}
		return false
	}
	for _, dep := range step.Depends {
		if !done[dep] {
			return false
		}
	}
	return true
}

// nextReadyStep returns the first step (in the workflow's declared
// order, static steps before dynamic ones) that satisfies ready, or
// false if none remain.
func nextReadyStep(steps []models.WorkflowStep, done map[string]bool) (models.WorkflowStep, bool) {
	for _, step := range steps {
		if ready(step, done) {
			return step, true
		}
	}
	return models.WorkflowStep{}, false
}
