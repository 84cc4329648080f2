// Package workflow implements the Workflow Executor (Scheduler), spec
// section 4.8: the readiness rule, per-node dispatch table, agent
// handoff dynamic-node injection, and review/checkpoint/loop/merge
// node semantics. Grounded on the teacher's
// internal/multiagent/orchestrator.go (mutex-protected maps, an
// explicit event-callback/notifier field, Go-idiomatic struct-based
// service rather than a singleton) generalized from multi-agent
// conversation orchestration to DAG-based workflow execution.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/agents"
	"github.com/flowcore/workflowcore/internal/clock"
	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/permission"
	"github.com/flowcore/workflowcore/internal/review"
)

// MaxHandoffDepth bounds DelegateToAgent chains per execution (spec
// section 4.8.3).
const MaxHandoffDepth = 5

// Store is the persistence boundary the scheduler depends on. The
// internal/store package provides a sqlite-backed implementation; tests
// use an in-memory fake.
type Store interface {
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
	SaveExecution(ctx context.Context, e *models.Execution) error

	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)

	CreateNodeExecution(ctx context.Context, ne *models.NodeExecution) error
	UpdateNodeExecution(ctx context.Context, ne *models.NodeExecution) error
	NodeExecutionsForIteration(ctx context.Context, executionID string, iteration int) ([]models.NodeExecution, error)
	NodeExecutionsForNode(ctx context.Context, executionID, nodeID string) ([]models.NodeExecution, error)

	CreateMessage(ctx context.Context, m *models.Message) error
	UpdateMessage(ctx context.Context, m *models.Message) error

	CreateContextItem(ctx context.Context, c *models.ContextItem) error
	ContextItems(ctx context.Context, executionID string) ([]models.ContextItem, error)

	CreateCheckpoint(ctx context.Context, c *models.Checkpoint) error
	UpdateCheckpoint(ctx context.Context, c *models.Checkpoint) error

	CreateReviewPanelExecution(ctx context.Context, r *models.ReviewPanelExecution) error
}

// Notifier publishes scheduler lifecycle events to outbound
// subscribers (spec section 6 "outbound notifications"). The
// internal/notify package is the production implementation.
type Notifier interface {
	Publish(topic string, payload map[string]any)
}

// AgentRunner drives one agent node's streaming turn and reports its
// final text plus any handoff request it issued. The internal/session
// package's Session.SendAndStream, wired through an adapter, is the
// production implementation.
type AgentRunner interface {
	RunAgentTurn(ctx context.Context, req AgentTurnRequest) (AgentTurnResult, error)
}

// AgentTurnRequest is the input to one agent node's turn.
type AgentTurnRequest struct {
	ExecutionID     string
	NodeExecutionID string
	AgentID         string
	Prompt          string
	OnMessageEvent  func(MessageEvent)
}

// MessageEventType enumerates the per-iteration message lifecycle
// events described in spec section 4.8.2.
type MessageEventType string

const (
	MessageStarted       MessageEventType = "started"
	MessageDelta         MessageEventType = "delta"
	MessageToolIteration MessageEventType = "tool_iteration"
	MessageFinal         MessageEventType = "final"
)

// MessageEvent drives AgentNodeHandler's per-iteration message
// materialization.
type MessageEvent struct {
	Type      MessageEventType
	TextDelta string
}

// AgentTurnResult is RunAgentTurn's outcome.
type AgentTurnResult struct {
	FinalText      string
	TokensIn       int
	TokensOut      int
	HandoffRequest *HandoffRequest
}

// HandoffRequest is the hidden DelegateToAgent tool's parsed payload
// (spec section 4.8.3).
type HandoffRequest struct {
	AgentID string
	Message string
	Context string
}

// Scheduler executes workflow DAGs one step at a time via ExecuteStep.
// It is safe for concurrent use across distinct executions; progress
// within a single execution is sequential per spec section 5.
type Scheduler struct {
	store   Store
	notify  Notifier
	agents  *agents.Registry
	perms   *permission.Service
	runner  AgentRunner
	clock   clock.Clock
	metrics Recorder

	mu           sync.Mutex
	dynamicNodes map[string]map[string]models.WorkflowStep // executionID -> nodeID -> step
	handoffDepth map[string]int                             // executionID -> depth
}

// Recorder is the metrics boundary the scheduler optionally reports to.
// internal/metrics.Metrics satisfies this; tests simply leave it nil.
type Recorder interface {
	ExecutionStarted(workflowID string)
	ExecutionFinished(workflowID, status string, duration time.Duration)
	NodeExecuted(nodeType, status string, duration time.Duration)
	ReviewPanelCompleted(outcome string, duration time.Duration)
	LoopIterated(mode string)
	AgentHandoff()
}

// SetMetrics attaches a Recorder. Safe to call once after construction;
// a nil Scheduler.metrics is a no-op, so this is optional.
func (s *Scheduler) SetMetrics(m Recorder) {
	s.metrics = m
}

func (s *Scheduler) recordNodeExecuted(nodeType models.StepType, status string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.NodeExecuted(string(nodeType), status, duration)
	}
}

func (s *Scheduler) recordExecutionFinished(workflowID, status string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.ExecutionFinished(workflowID, status, duration)
	}
}

func (s *Scheduler) recordReviewPanel(outcome string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.ReviewPanelCompleted(outcome, duration)
	}
}

func (s *Scheduler) recordLoopIteration(mode string) {
	if s.metrics != nil {
		s.metrics.LoopIterated(mode)
	}
}

func (s *Scheduler) recordAgentHandoff() {
	if s.metrics != nil {
		s.metrics.AgentHandoff()
	}
}

// NewScheduler wires a Scheduler from its collaborating services.
func NewScheduler(store Store, notify Notifier, registry *agents.Registry, perms *permission.Service, runner AgentRunner, c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.Real{}
	}
	return &Scheduler{
		store:        store,
		notify:       notify,
		agents:       registry,
		perms:        perms,
		runner:       runner,
		clock:        c,
		dynamicNodes: make(map[string]map[string]models.WorkflowStep),
		handoffDepth: make(map[string]int),
	}
}

func (s *Scheduler) now() time.Time { return s.clock.Now() }

func (s *Scheduler) publish(topic string, payload map[string]any) {
	if s.notify != nil {
		s.notify.Publish(topic, payload)
	}
}

// stepsFor returns a workflow's static steps merged with any dynamic
// steps injected for this execution via handoffs.
func (s *Scheduler) stepsFor(wf *models.Workflow, executionID string) []models.WorkflowStep {
	s.mu.Lock()
	dyn := s.dynamicNodes[executionID]
	s.mu.Unlock()
	if len(dyn) == 0 {
		return wf.Steps
	}
	out := append([]models.WorkflowStep{}, wf.Steps...)
	for _, step := range dyn {
		out = append(out, step)
	}
	return out
}

func (s *Scheduler) stepByID(wf *models.Workflow, executionID, id string) (models.WorkflowStep, bool) {
	for _, st := range s.stepsFor(wf, executionID) {
		if st.ID == id {
			return st, true
		}
	}
	return models.WorkflowStep{}, false
}

// addDynamicNode injects a synthetic step for this execution, as
// DelegateToAgent handoffs do (spec section 4.8.3).
func (s *Scheduler) addDynamicNode(executionID string, step models.WorkflowStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dynamicNodes[executionID] == nil {
		s.dynamicNodes[executionID] = make(map[string]models.WorkflowStep)
	}
	s.dynamicNodes[executionID][step.ID] = step
}

func (s *Scheduler) incHandoffDepth(executionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoffDepth[executionID]++
	return s.handoffDepth[executionID]
}

// CleanupExecution removes dynamic nodes and the handoff depth counter
// for a terminal execution (spec section 4.8.3 "Cleanup on execution
// terminal state").
func (s *Scheduler) CleanupExecution(executionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dynamicNodes, executionID)
	delete(s.handoffDepth, executionID)
}

// StartExecution creates and persists a running Execution for wf,
// ready for the caller to drive with repeated ExecuteStep calls.
func (s *Scheduler) StartExecution(ctx context.Context, wf *models.Workflow, initialInput string) (*models.Execution, error) {
	exec := &models.Execution{
		ID:            uuid.NewString(),
		WorkflowID:    wf.ID,
		Status:        models.ExecutionRunning,
		MaxIterations: wf.MaxIterations,
		InitialInput:  initialInput,
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}
	if err := s.store.SaveExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("workflow: save execution: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ExecutionStarted(wf.ID)
	}
	s.publish("workflow/activity", map[string]any{"executionId": exec.ID, "kind": "execution_started", "workflowId": wf.ID})
	return exec, nil
}

// ResolveAgentID applies the agent-node fallback chain: step agent ->
// workflow default -> "assistant" (spec section 4.8.1).
func ResolveAgentID(step models.WorkflowStep, wf *models.Workflow) string {
	if step.Agent != "" {
		return step.Agent
	}
	if wf.DefaultAgentID != "" {
		return wf.DefaultAgentID
	}
	return "assistant"
}

// reviewerRunnerAdapter lets the scheduler hand review.RunPanel a
// ReviewerFn backed by its own AgentRunner without the review package
// importing workflow.
func (s *Scheduler) reviewerFn(ctx context.Context, executionID, nodeExecutionID string) review.ReviewerFn {
	return func(ctx context.Context, reviewer models.Reviewer) (string, error) {
		res, err := s.runner.RunAgentTurn(ctx, AgentTurnRequest{
			ExecutionID:     executionID,
			NodeExecutionID: nodeExecutionID,
			AgentID:         reviewer.AgentID,
			Prompt:          reviewer.Prompt,
		})
		if err != nil {
			return "", err
		}
		return res.FinalText, nil
	}
}
