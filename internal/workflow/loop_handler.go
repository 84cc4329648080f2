package workflow

import (
	"encoding/json"
	"fmt"

	"context"

	"github.com/flowcore/workflowcore/internal/models"
)

type loopOutput struct {
	Continue     bool `json:"continue,omitempty"`
	Done         bool `json:"done,omitempty"`
	CurrentIndex int  `json:"currentIndex,omitempty"`
	CurrentItem  any  `json:"currentItem,omitempty"`
}

// loopHandler implements for_each/times/while iteration (spec section
// 4.8.1 "loop"). Each pass increments the execution's iteration count
// and routes back to itself until the bound is reached, at which point
// it completes and lets the readiness rule advance to its dependents.
func loopHandler(ctx context.Context, s *Scheduler, wf *models.Workflow, exec *models.Execution, step models.WorkflowStep) (HandlerResult, error) {
	prior, err := s.store.NodeExecutionsForNode(ctx, exec.ID, step.ID)
	if err != nil {
		return HandlerResult{}, err
	}
	index := 0
	for _, ne := range prior {
		if ne.Status == models.NodeCompleted {
			index++
		}
	}

	maxIter := step.LoopMaxIter
	if maxIter <= 0 {
		maxIter = models.LoopMaxIterations
	}

	switch step.LoopType {
	case models.LoopForEach:
		items, err := loopArrayField(latestContent(ctx, s, exec.ID), step.LoopArrayField)
		if err != nil {
			return HandlerResult{}, err
		}
		if index >= len(items) {
			return loopDone()
		}
		exec.IterationCount++
		s.recordLoopIteration("for_each")
		return loopContinue(step.ID, index, items[index])

	case models.LoopTimes:
		if index >= step.LoopTimes {
			return loopDone()
		}
		exec.IterationCount++
		s.recordLoopIteration("times")
		return loopContinue(step.ID, index, nil)

	case models.LoopWhile:
		fallthrough
	default:
		if index >= maxIter {
			return loopDone()
		}
		exec.IterationCount++
		s.recordLoopIteration("while")
		return loopContinue(step.ID, index, nil)
	}
}

func loopArrayField(content, field string) ([]any, error) {
	if content == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return nil, fmt.Errorf("workflow: loop input is not an object: %w", err)
	}
	arr, ok := m[field].([]any)
	if !ok {
		return nil, nil
	}
	return arr, nil
}

func loopContinue(selfID string, index int, item any) (HandlerResult, error) {
	out, err := json.Marshal(loopOutput{Continue: true, CurrentIndex: index, CurrentItem: item})
	if err != nil {
		return HandlerResult{}, err
	}
	return HandlerResult{Output: string(out), NextNodeID: selfID}, nil
}

func loopDone() (HandlerResult, error) {
	out, err := json.Marshal(loopOutput{Done: true})
	if err != nil {
		return HandlerResult{}, err
	}
	return HandlerResult{Output: string(out)}, nil
}
