package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
)

type decisionTally struct {
	critical, queue, approve, total int
}

// decisionHandler parses `VOTE: (critical|queue|approve)` out of the
// current iteration's reviewer output context items and routes per
// spec section 4.8.1 "decision / vote".
func decisionHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	items, err := s.store.ContextItems(ctx, exec.ID)
	if err != nil {
		return HandlerResult{}, err
	}

	var tally decisionTally
	for _, item := range items {
		if item.IterationNumber != exec.IterationCount || !item.IsActive {
			continue
		}
		switch parseDecisionVote(item.Content) {
		case "critical":
			tally.critical++
			tally.total++
		case "queue":
			tally.queue++
			tally.total++
		case "approve":
			tally.approve++
			tally.total++
		}
	}

	summary := fmt.Sprintf("decision: %d critical, %d queue, %d approve (of %d)", tally.critical, tally.queue, tally.approve, tally.total)
	if err := s.store.CreateMessage(ctx, &models.Message{
		ID:          uuid.NewString(),
		ExecutionID: exec.ID,
		Role:        models.RoleSystem,
		Content:     summary,
		IsComplete:  true,
		IsFinalIter: true,
		CreatedAt:   s.now(),
	}); err != nil {
		return HandlerResult{}, err
	}

	switch {
	case tally.total > 0 && tally.critical == tally.total:
		if cp, ok := firstStepOfType(s.stepsFor(wf, exec.ID), models.StepCheckpoint); ok {
			return HandlerResult{Output: summary, NextNodeID: cp.ID, ShouldPause: true}, nil
		}
		return HandlerResult{Output: summary, ShouldPause: true}, nil

	case tally.total > 0 && tally.critical*2 >= tally.total:
		exec.IterationCount++
		if root, ok := firstRootAgentStep(s.stepsFor(wf, exec.ID)); ok {
			return HandlerResult{Output: summary, NextNodeID: root.ID}, nil
		}
		return HandlerResult{Output: summary}, nil

	case tally.queue > 0:
		if fb, ok := firstStepWithIDContaining(s.stepsFor(wf, exec.ID), "feedback"); ok {
			return HandlerResult{Output: summary, NextNodeID: fb.ID}, nil
		}
		return HandlerResult{Output: summary}, nil

	default:
		return HandlerResult{Output: summary, WorkflowDone: true}, nil
	}
}

func parseDecisionVote(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !hasPrefixFold(line, "VOTE:") {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(line[len("VOTE:"):]))
		switch v {
		case "critical", "queue", "approve":
			return v
		}
	}
	return ""
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func firstStepOfType(steps []models.WorkflowStep, t models.StepType) (models.WorkflowStep, bool) {
	for _, st := range steps {
		if st.Type == t {
			return st, true
		}
	}
	return models.WorkflowStep{}, false
}

func firstRootAgentStep(steps []models.WorkflowStep) (models.WorkflowStep, bool) {
	for _, st := range steps {
		if st.Type == models.StepAgent && len(st.Depends) == 0 {
			return st, true
		}
	}
	return models.WorkflowStep{}, false
}

func firstStepWithIDContaining(steps []models.WorkflowStep, substr string) (models.WorkflowStep, bool) {
	for _, st := range steps {
		if strings.Contains(st.ID, substr) {
			return st, true
		}
	}
	return models.WorkflowStep{}, false
}
