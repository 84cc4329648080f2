package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flowcore/workflowcore/internal/agents"
	"github.com/flowcore/workflowcore/internal/clock"
	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/permission"
)

func newTestScheduler(runner AgentRunner) (*Scheduler, *memStore, *fakeNotifier) {
	store := newMemStore()
	notify := &fakeNotifier{}
	sched := NewScheduler(store, notify, agents.New(), permission.NewService(clock.Real{}), runner, clock.NewFake())
	return sched, store, notify
}

func mustSeed(t *testing.T, store *memStore, wf *models.Workflow, exec *models.Execution) {
	t.Helper()
	store.workflows[wf.ID] = wf
	if err := store.SaveExecution(context.Background(), exec); err != nil {
		t.Fatalf("seed execution: %v", err)
	}
}

func TestExecuteStep_TriggerAgentOutput(t *testing.T) {
	wf := &models.Workflow{
		ID: "wf-1",
		Steps: []models.WorkflowStep{
			{ID: "start", Type: models.StepTrigger},
			{ID: "coder", Type: models.StepAgent, Agent: "coder", Depends: []string{"start"}},
			{ID: "end", Type: models.StepOutput, Depends: []string{"coder"}},
		},
		MaxIterations: 10,
	}
	exec := &models.Execution{ID: "exec-1", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 10, InitialInput: "build a widget"}

	runner := &fakeRunner{textFor: map[string]string{"coder": "done building the widget"}}
	sched, store, notify := newTestScheduler(runner)
	mustSeed(t, store, wf, exec)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := sched.ExecuteStep(ctx, exec.ID); err != nil {
			t.Fatalf("ExecuteStep() iteration %d error = %v", i, err)
		}
		got, _ := store.GetExecution(ctx, exec.ID)
		if got.Status == models.ExecutionCompleted {
			break
		}
	}

	final, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}
	if final.Status != models.ExecutionCompleted {
		t.Fatalf("Status = %v, want completed", final.Status)
	}
	if !strings.Contains(final.FinalOutput, "done building the widget") {
		t.Fatalf("FinalOutput = %q, want it to contain the agent's response", final.FinalOutput)
	}

	found := false
	for _, topic := range notify.topics {
		if topic == "workflow/completed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a workflow/completed notification, got topics %v", notify.topics)
	}
}

func TestExecuteStep_RejectsWhenNotRunning(t *testing.T) {
	wf := &models.Workflow{ID: "wf-2", Steps: []models.WorkflowStep{{ID: "start", Type: models.StepTrigger}}}
	exec := &models.Execution{ID: "exec-2", WorkflowID: wf.ID, Status: models.ExecutionPaused}

	sched, store, _ := newTestScheduler(&fakeRunner{})
	mustSeed(t, store, wf, exec)

	err := sched.ExecuteStep(context.Background(), exec.ID)
	if err != ErrNotRunning {
		t.Fatalf("ExecuteStep() error = %v, want ErrNotRunning", err)
	}
}

func TestExecuteStep_CheckpointPausesAndResumes(t *testing.T) {
	wf := &models.Workflow{
		ID: "wf-3",
		Steps: []models.WorkflowStep{
			{ID: "start", Type: models.StepTrigger},
			{ID: "gate", Type: models.StepCheckpoint, Depends: []string{"start"}, Prompt: "approve?"},
			{ID: "end", Type: models.StepOutput, Depends: []string{"gate"}},
		},
		MaxIterations: 10,
	}
	exec := &models.Execution{ID: "exec-3", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 10}

	sched, store, _ := newTestScheduler(&fakeRunner{})
	mustSeed(t, store, wf, exec)
	ctx := context.Background()

	if err := sched.ExecuteStep(ctx, exec.ID); err != nil { // trigger
		t.Fatalf("trigger step: %v", err)
	}
	if err := sched.ExecuteStep(ctx, exec.ID); err != nil { // checkpoint
		t.Fatalf("checkpoint step: %v", err)
	}

	got, _ := store.GetExecution(ctx, exec.ID)
	if got.Status != models.ExecutionAwaitInput {
		t.Fatalf("Status = %v, want awaiting_input", got.Status)
	}

	if err := sched.ResumeAfterCheckpoint(ctx, exec.ID); err != nil {
		t.Fatalf("ResumeAfterCheckpoint() error = %v", err)
	}
	if err := sched.ExecuteStep(ctx, exec.ID); err != nil { // should now be "end"
		t.Fatalf("final step: %v", err)
	}
	got, _ = store.GetExecution(ctx, exec.ID)
	if got.Status != models.ExecutionCompleted {
		t.Fatalf("Status = %v, want completed", got.Status)
	}
}

func TestExecuteStep_LoopTimes(t *testing.T) {
	wf := &models.Workflow{
		ID: "wf-4",
		Steps: []models.WorkflowStep{
			{ID: "loop", Type: models.StepLoop, LoopType: models.LoopTimes, LoopTimes: 3},
			{ID: "end", Type: models.StepOutput, Depends: []string{"loop"}},
		},
		MaxIterations: 20,
	}
	exec := &models.Execution{ID: "exec-4", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 20}

	sched, store, _ := newTestScheduler(&fakeRunner{})
	mustSeed(t, store, wf, exec)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := sched.ExecuteStep(ctx, exec.ID); err != nil {
			t.Fatalf("ExecuteStep() iteration %d: %v", i, err)
		}
		got, _ := store.GetExecution(ctx, exec.ID)
		if got.Status == models.ExecutionCompleted {
			break
		}
	}

	loopRuns, _ := store.NodeExecutionsForNode(ctx, exec.ID, "loop")
	completedLoops := 0
	for _, ne := range loopRuns {
		if ne.Status == models.NodeCompleted {
			completedLoops++
		}
	}
	if completedLoops != 4 { // 3 "continue" passes + 1 "done" pass
		t.Fatalf("completed loop node executions = %d, want 4", completedLoops)
	}

	final, _ := store.GetExecution(ctx, exec.ID)
	if final.Status != models.ExecutionCompleted {
		t.Fatalf("Status = %v, want completed", final.Status)
	}
}

func TestExecuteStep_ConditionBranches(t *testing.T) {
	wf := &models.Workflow{
		ID: "wf-5",
		Steps: []models.WorkflowStep{
			{ID: "start", Type: models.StepTrigger},
			{ID: "check", Type: models.StepCondition, Depends: []string{"start"}},
			{ID: "branch-true", Type: models.StepOutput, Depends: []string{"check"}},
			{ID: "branch-false", Type: models.StepOutput, Depends: []string{"check"}},
		},
		MaxIterations: 10,
	}
	exec := &models.Execution{ID: "exec-5", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 10, InitialInput: "non-empty"}

	sched, store, _ := newTestScheduler(&fakeRunner{})
	mustSeed(t, store, wf, exec)
	ctx := context.Background()

	if err := sched.ExecuteStep(ctx, exec.ID); err != nil { // trigger
		t.Fatalf("trigger: %v", err)
	}
	if err := sched.ExecuteStep(ctx, exec.ID); err != nil { // condition
		t.Fatalf("condition: %v", err)
	}
	got, _ := store.GetExecution(ctx, exec.ID)
	if got.CurrentNodeID != "branch-true" {
		t.Fatalf("CurrentNodeID = %q, want branch-true (non-empty input)", got.CurrentNodeID)
	}
}

func TestExecuteStep_MergeWaitAll(t *testing.T) {
	wf := &models.Workflow{
		ID: "wf-6",
		Steps: []models.WorkflowStep{
			{ID: "a", Type: models.StepAgent, Agent: "a"},
			{ID: "b", Type: models.StepAgent, Agent: "b"},
			{ID: "join", Type: models.StepMerge, Depends: []string{"a", "b"}, MergeStrategy: models.MergeWaitAll},
			{ID: "end", Type: models.StepOutput, Depends: []string{"join"}},
		},
		MaxIterations: 10,
	}
	exec := &models.Execution{ID: "exec-6", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 10}

	runner := &fakeRunner{textFor: map[string]string{"a": "output-a", "b": "output-b"}}
	sched, store, _ := newTestScheduler(runner)
	mustSeed(t, store, wf, exec)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		got, _ := store.GetExecution(ctx, exec.ID)
		if got.Status == models.ExecutionCompleted {
			break
		}
		if err := sched.ExecuteStep(ctx, exec.ID); err != nil {
			t.Fatalf("ExecuteStep() iteration %d: %v", i, err)
		}
	}

	final, _ := store.GetExecution(ctx, exec.ID)
	if !strings.Contains(final.FinalOutput, "output-a") || !strings.Contains(final.FinalOutput, "output-b") {
		t.Fatalf("FinalOutput = %q, want both branch outputs merged", final.FinalOutput)
	}
}

type fakeRecorder struct {
	nodeExecuted       int
	executionsFinished []string
}

func (f *fakeRecorder) ExecutionStarted(string) {}
func (f *fakeRecorder) ExecutionFinished(_ string, status string, _ time.Duration) {
	f.executionsFinished = append(f.executionsFinished, status)
}
func (f *fakeRecorder) NodeExecuted(string, string, time.Duration) { f.nodeExecuted++ }
func (f *fakeRecorder) ReviewPanelCompleted(string, time.Duration) {}
func (f *fakeRecorder) LoopIterated(string)                       {}
func (f *fakeRecorder) AgentHandoff()                              {}

func TestExecuteStep_RecordsMetricsOnCompletion(t *testing.T) {
	wf := &models.Workflow{
		ID: "wf-7",
		Steps: []models.WorkflowStep{
			{ID: "start", Type: models.StepTrigger},
			{ID: "end", Type: models.StepOutput, Depends: []string{"start"}},
		},
		MaxIterations: 10,
	}
	exec := &models.Execution{ID: "exec-7", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 10}

	sched, store, _ := newTestScheduler(&fakeRunner{})
	rec := &fakeRecorder{}
	sched.SetMetrics(rec)
	mustSeed(t, store, wf, exec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, _ := store.GetExecution(ctx, exec.ID)
		if got.Status == models.ExecutionCompleted {
			break
		}
		if err := sched.ExecuteStep(ctx, exec.ID); err != nil {
			t.Fatalf("ExecuteStep() iteration %d: %v", i, err)
		}
	}

	if rec.nodeExecuted != 2 {
		t.Fatalf("nodeExecuted = %d, want 2", rec.nodeExecuted)
	}
	if len(rec.executionsFinished) != 1 || rec.executionsFinished[0] != "completed" {
		t.Fatalf("executionsFinished = %v, want [completed]", rec.executionsFinished)
	}
}
