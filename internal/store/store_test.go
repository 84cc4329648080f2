package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowcore/workflowcore/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "workflowcore.sqlite")

	if err := Migrate(dbPath, "migrations"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	st, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_WorkflowRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &models.Workflow{
		ID:            "wf-1",
		Name:          "code review loop",
		MaxIterations: 10,
		Steps: []models.WorkflowStep{
			{ID: "start", Type: models.StepTrigger},
			{ID: "coder", Type: models.StepAgent, Agent: "coder", Depends: []string{"start"}},
		},
		DefaultAgentID: "assistant",
	}
	if err := st.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow() error = %v", err)
	}

	got, err := st.GetWorkflow(ctx, "wf-1")
	if err != nil {
		t.Fatalf("GetWorkflow() error = %v", err)
	}
	if got.Name != wf.Name || len(got.Steps) != 2 || got.DefaultAgentID != "assistant" {
		t.Fatalf("GetWorkflow() = %+v, want round-tripped %+v", got, wf)
	}
}

func TestSQLiteStore_ExecutionAndNodeExecutionRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &models.Workflow{ID: "wf-2", Name: "w", MaxIterations: 5}
	if err := st.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow() error = %v", err)
	}

	exec := &models.Execution{
		ID: "exec-1", WorkflowID: "wf-2", Status: models.ExecutionRunning,
		MaxIterations: 5, InitialInput: "hello",
	}
	if err := st.SaveExecution(ctx, exec); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}

	ne := &models.NodeExecution{
		ID: "ne-1", ExecutionID: "exec-1", NodeID: "start", NodeType: models.StepTrigger,
		Status: models.NodeRunning, IterationNumber: 0, StartedAt: time.Now().UTC(),
	}
	if err := st.CreateNodeExecution(ctx, ne); err != nil {
		t.Fatalf("CreateNodeExecution() error = %v", err)
	}
	ne.Status = models.NodeCompleted
	ne.Output = "hello"
	if err := st.UpdateNodeExecution(ctx, ne); err != nil {
		t.Fatalf("UpdateNodeExecution() error = %v", err)
	}

	got, err := st.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}
	if got.InitialInput != "hello" || got.Status != models.ExecutionRunning {
		t.Fatalf("GetExecution() = %+v", got)
	}

	iterExecs, err := st.NodeExecutionsForIteration(ctx, "exec-1", 0)
	if err != nil {
		t.Fatalf("NodeExecutionsForIteration() error = %v", err)
	}
	if len(iterExecs) != 1 || iterExecs[0].Status != models.NodeCompleted || iterExecs[0].Output != "hello" {
		t.Fatalf("NodeExecutionsForIteration() = %+v", iterExecs)
	}
}

func TestSQLiteStore_ListRunningExecutions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &models.Workflow{ID: "wf-running", Name: "w", MaxIterations: 5}
	if err := st.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("SaveWorkflow() error = %v", err)
	}

	running := &models.Execution{ID: "exec-running", WorkflowID: wf.ID, Status: models.ExecutionRunning, MaxIterations: 5}
	done := &models.Execution{ID: "exec-done", WorkflowID: wf.ID, Status: models.ExecutionCompleted, MaxIterations: 5}
	for _, e := range []*models.Execution{running, done} {
		if err := st.SaveExecution(ctx, e); err != nil {
			t.Fatalf("SaveExecution() error = %v", err)
		}
	}

	got, err := st.ListRunningExecutions(ctx)
	if err != nil {
		t.Fatalf("ListRunningExecutions() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "exec-running" {
		t.Fatalf("ListRunningExecutions() = %+v, want only exec-running", got)
	}
}

func TestSQLiteStore_ContextItemsPreserveOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &models.Workflow{ID: "wf-3", Name: "w", MaxIterations: 5}
	_ = st.SaveWorkflow(ctx, wf)
	exec := &models.Execution{ID: "exec-2", WorkflowID: "wf-3", Status: models.ExecutionRunning, MaxIterations: 5}
	_ = st.SaveExecution(ctx, exec)

	for i, content := range []string{"first", "second", "third"} {
		item := &models.ContextItem{
			ID: "item-" + content, ExecutionID: "exec-2", ItemType: models.ItemAgentOutput,
			Content: content, IterationNumber: i, IsActive: true, IsComplete: true,
		}
		if err := st.CreateContextItem(ctx, item); err != nil {
			t.Fatalf("CreateContextItem(%s) error = %v", content, err)
		}
	}

	items, err := st.ContextItems(ctx, "exec-2")
	if err != nil {
		t.Fatalf("ContextItems() error = %v", err)
	}
	if len(items) != 3 || items[0].Content != "first" || items[2].Content != "third" {
		t.Fatalf("ContextItems() = %+v, want insertion order preserved", items)
	}
}

func TestSQLiteStore_ReviewPanelExecutionRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &models.Workflow{ID: "wf-4", Name: "w", MaxIterations: 5}
	_ = st.SaveWorkflow(ctx, wf)
	exec := &models.Execution{ID: "exec-3", WorkflowID: "wf-4", Status: models.ExecutionRunning, MaxIterations: 5}
	_ = st.SaveExecution(ctx, exec)

	panel := &models.ReviewPanelExecution{
		ID:      "panel-1",
		Config:  models.ReviewPanelConfig{Strategy: models.StrategyMajority},
		Status:  models.ReviewPanelCompleted,
		Outcome: models.OutcomeApproved,
		Summary: "all clear",
		Votes: []models.Vote{
			{ReviewerID: "a", Vote: models.VoteApprove, Weight: 1},
			{ReviewerID: "b", Vote: models.VoteApprove, Weight: 1, Issues: []models.Issue{{Severity: "minor", Message: "nit"}}},
		},
	}
	if err := st.CreateReviewPanelExecution(ctx, panel); err != nil {
		t.Fatalf("CreateReviewPanelExecution() error = %v", err)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "workflowcore.sqlite")

	if err := Migrate(dbPath, "migrations"); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := Migrate(dbPath, "migrations"); err != nil {
		t.Fatalf("second Migrate() error = %v, want no-op success", err)
	}
}
