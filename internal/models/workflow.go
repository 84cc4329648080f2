// Package models holds the persisted entity shapes shared by every
// package in the workflow core. Entities reference each other by string
// ID rather than by pointer; nothing here owns a database connection.
package models

// StepType enumerates the node kinds the scheduler knows how to dispatch.
type StepType string

const (
	StepTrigger        StepType = "trigger"
	StepAgent          StepType = "agent"
	StepRouter         StepType = "router"
	StepCheckpoint     StepType = "checkpoint"
	StepDecision       StepType = "decision"
	StepAwaitInput     StepType = "await_input"
	StepReviewPanel    StepType = "review_panel"
	StepSplit          StepType = "split"
	StepMerge          StepType = "merge"
	StepLoop           StepType = "loop"
	StepCondition      StepType = "condition"
	StepTransform      StepType = "transform"
	StepOutput         StepType = "output"
	StepPermissionGate StepType = "permission_gate"
)

// MergeStrategy controls how a merge node combines the outputs of its
// dependencies.
type MergeStrategy string

const (
	MergeWaitAll MergeStrategy = "wait_all"
	MergeWaitAny MergeStrategy = "wait_any"
)

// LoopType selects the loop node's iteration semantics.
type LoopType string

const (
	LoopForEach LoopType = "for_each"
	LoopTimes   LoopType = "times"
	LoopWhile   LoopType = "while"
)

// LoopMaxIterations bounds a while-loop lacking a user-supplied limit.
const LoopMaxIterations = 100

// Workflow is an immutable definition: a named DAG of steps plus
// defaults consumed when a step omits them.
type Workflow struct {
	ID                  string
	Name                string
	Steps               []WorkflowStep
	MaxIterations       int
	DefaultAgentID      string
	DefaultAllowedTools []string
}

// StepByID returns the step with the given id, or false if absent.
func (w *Workflow) StepByID(id string) (WorkflowStep, bool) {
	for _, s := range w.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// Validate checks step-id uniqueness and that every `depends` reference
// resolves within the same workflow.
func (w *Workflow) Validate() error {
	seen := make(map[string]bool, len(w.Steps))
	for _, s := range w.Steps {
		if seen[s.ID] {
			return &ValidationError{Msg: "duplicate step id: " + s.ID}
		}
		seen[s.ID] = true
	}
	for _, s := range w.Steps {
		for _, d := range s.Depends {
			if !seen[d] {
				return &ValidationError{Msg: "dangling depends: " + s.ID + " -> " + d}
			}
		}
	}
	return nil
}

// WorkflowStep is one DAG node. Optional fields are left zero-valued
// when the step type does not use them.
type WorkflowStep struct {
	ID             string
	Type           StepType
	Agent          string
	Prompt         string
	Depends        []string
	AllowedTools   []string
	DeniedTools    []string
	ReviewQuestion string
	MergeStrategy  MergeStrategy
	LoopType       LoopType
	LoopArrayField string
	LoopTimes      int
	LoopMaxIter    int
	Branches       map[string]string // explicit condition routing, see DESIGN.md open-question decision
	ReviewConfig   *ReviewPanelConfig
	CheckpointType string
}

// ValidationError marks a synchronous, no-state-change validation
// failure (missing field, unknown type, dangling reference, ...).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
