package models

import "time"

// ExecutionStatus is the execution state machine.
type ExecutionStatus string

const (
	ExecutionPending      ExecutionStatus = "pending"
	ExecutionRunning      ExecutionStatus = "running"
	ExecutionPaused       ExecutionStatus = "paused"
	ExecutionAwaitInput   ExecutionStatus = "awaiting_input"
	ExecutionCompleted    ExecutionStatus = "completed"
	ExecutionFailed       ExecutionStatus = "failed"
	ExecutionCancelled    ExecutionStatus = "cancelled"
)

// CanResume reports whether the status may transition back to running.
func (s ExecutionStatus) CanResume() bool {
	return s == ExecutionPaused || s == ExecutionAwaitInput
}

// Terminal reports whether the status is a final state.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionCompleted, ExecutionFailed, ExecutionCancelled:
		return true
	default:
		return false
	}
}

// Execution is a runtime instance of a Workflow.
type Execution struct {
	ID             string
	WorkflowID     string
	Status         ExecutionStatus
	CurrentNodeID  string
	IterationCount int
	MaxIterations  int
	InitialInput   string
	FinalOutput    string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// WithinIterationBudget reports whether the execution's iteration count
// has not yet exceeded its limit.
func (e *Execution) WithinIterationBudget() bool {
	return e.IterationCount <= e.MaxIterations
}

// NodeExecutionStatus is the per-attempt state machine.
type NodeExecutionStatus string

const (
	NodePending   NodeExecutionStatus = "pending"
	NodeRunning   NodeExecutionStatus = "running"
	NodeCompleted NodeExecutionStatus = "completed"
	NodeFailed    NodeExecutionStatus = "failed"
	NodeSkipped   NodeExecutionStatus = "skipped"
)

// NodeExecution is one (node x iteration) attempt.
type NodeExecution struct {
	ID              string
	ExecutionID     string
	NodeID          string
	NodeType        StepType
	Status          NodeExecutionStatus
	IterationNumber int
	Input           string
	Output          string
	StartedAt       time.Time
	CompletedAt     *time.Time
	DurationMs      int64
	TokensIn        int
	TokensOut       int
}
