// Package store is the State Services layer (spec section 6
// "Persisted-state layout"): a sqlite-backed implementation of
// internal/workflow.Store, fronted by golang-migrate-driven linear
// migrations. Grounded on the teacher's internal/sessions store
// shape (explicit struct wrapping *sql.DB, one method per entity
// operation) generalized from session transcripts to the full
// workflow entity set.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowcore/workflowcore/internal/models"
)

// SQLiteStore implements internal/workflow.Store and
// internal/permission export/import persistence over a single sqlite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at dbPath.
// Callers should run Migrate against the same path before using the
// returned store.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: one writer at a time
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// --- workflows ---------------------------------------------------------

// SaveWorkflow upserts a workflow definition, JSON-encoding its steps.
func (s *SQLiteStore) SaveWorkflow(ctx context.Context, wf *models.Workflow) error {
	steps, err := json.Marshal(workflowDefinition{
		Steps:               wf.Steps,
		DefaultAgentID:      wf.DefaultAgentID,
		DefaultAllowedTools: wf.DefaultAllowedTools,
	})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, definition, max_iterations)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, definition=excluded.definition, max_iterations=excluded.max_iterations
	`, wf.ID, wf.Name, string(steps), wf.MaxIterations)
	return err
}

type workflowDefinition struct {
	Steps               []models.WorkflowStep `json:"steps"`
	DefaultAgentID      string                `json:"defaultAgentId"`
	DefaultAllowedTools []string              `json:"defaultAllowedTools"`
}

// GetWorkflow implements internal/workflow.Store.
func (s *SQLiteStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var name, definition string
	var maxIter int
	err := s.db.QueryRowContext(ctx, `SELECT name, definition, max_iterations FROM workflows WHERE id = ?`, id).
		Scan(&name, &definition, &maxIter)
	if err != nil {
		return nil, fmt.Errorf("store: get workflow %s: %w", id, err)
	}
	var def workflowDefinition
	if err := json.Unmarshal([]byte(definition), &def); err != nil {
		return nil, fmt.Errorf("store: decode workflow %s: %w", id, err)
	}
	return &models.Workflow{
		ID: id, Name: name, Steps: def.Steps,
		MaxIterations: maxIter, DefaultAgentID: def.DefaultAgentID, DefaultAllowedTools: def.DefaultAllowedTools,
	}, nil
}

// --- executions ---------------------------------------------------------

// GetExecution implements internal/workflow.Store.
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var e models.Execution
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, status, current_node_id, iteration_count, max_iterations,
		       initial_input, final_output, error_message, created_at, updated_at, completed_at
		FROM executions WHERE id = ?`, id).Scan(
		&e.ID, &e.WorkflowID, &e.Status, &e.CurrentNodeID, &e.IterationCount, &e.MaxIterations,
		&e.InitialInput, &e.FinalOutput, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get execution %s: %w", id, err)
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return &e, nil
}

// ListRunningExecutions returns every execution still in a status the
// scheduler can advance (running or awaiting_input's checkpoint
// resolution already transitions it back to running), used by
// cmd/workflowd's polling driver to discover work across restarts.
func (s *SQLiteStore) ListRunningExecutions(ctx context.Context) ([]*models.Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workflow_id, status, current_node_id, iteration_count, max_iterations,
		       initial_input, final_output, error_message, created_at, updated_at, completed_at
		FROM executions WHERE status = ?`, models.ExecutionRunning)
	if err != nil {
		return nil, fmt.Errorf("store: list running executions: %w", err)
	}
	defer rows.Close()

	var out []*models.Execution
	for rows.Next() {
		var e models.Execution
		var completedAt sql.NullTime
		if err := rows.Scan(
			&e.ID, &e.WorkflowID, &e.Status, &e.CurrentNodeID, &e.IterationCount, &e.MaxIterations,
			&e.InitialInput, &e.FinalOutput, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan running execution: %w", err)
		}
		if completedAt.Valid {
			e.CompletedAt = &completedAt.Time
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SaveExecution implements internal/workflow.Store.
func (s *SQLiteStore) SaveExecution(ctx context.Context, e *models.Execution) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, workflow_id, status, current_node_id, iteration_count, max_iterations,
			initial_input, final_output, error_message, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, current_node_id=excluded.current_node_id,
			iteration_count=excluded.iteration_count, max_iterations=excluded.max_iterations,
			initial_input=excluded.initial_input, final_output=excluded.final_output,
			error_message=excluded.error_message, updated_at=excluded.updated_at, completed_at=excluded.completed_at
	`, e.ID, e.WorkflowID, e.Status, e.CurrentNodeID, e.IterationCount, e.MaxIterations,
		e.InitialInput, e.FinalOutput, e.ErrorMessage, e.CreatedAt, e.UpdatedAt, nullTime(e.CompletedAt))
	return err
}

// --- node executions -----------------------------------------------------

// CreateNodeExecution implements internal/workflow.Store.
func (s *SQLiteStore) CreateNodeExecution(ctx context.Context, ne *models.NodeExecution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_executions (id, execution_id, node_id, node_type, status, iteration_number,
			input, output, started_at, completed_at, duration_ms, tokens_in, tokens_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ne.ID, ne.ExecutionID, ne.NodeID, ne.NodeType, ne.Status, ne.IterationNumber,
		ne.Input, ne.Output, ne.StartedAt, nullTime(ne.CompletedAt), ne.DurationMs, ne.TokensIn, ne.TokensOut)
	return err
}

// UpdateNodeExecution implements internal/workflow.Store.
func (s *SQLiteStore) UpdateNodeExecution(ctx context.Context, ne *models.NodeExecution) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE node_executions SET status=?, output=?, completed_at=?, duration_ms=?, tokens_in=?, tokens_out=?
		WHERE id=?
	`, ne.Status, ne.Output, nullTime(ne.CompletedAt), ne.DurationMs, ne.TokensIn, ne.TokensOut, ne.ID)
	return err
}

func (s *SQLiteStore) scanNodeExecutions(rows *sql.Rows) ([]models.NodeExecution, error) {
	defer rows.Close()
	var out []models.NodeExecution
	for rows.Next() {
		var ne models.NodeExecution
		var completedAt sql.NullTime
		if err := rows.Scan(&ne.ID, &ne.ExecutionID, &ne.NodeID, &ne.NodeType, &ne.Status, &ne.IterationNumber,
			&ne.Input, &ne.Output, &ne.StartedAt, &completedAt, &ne.DurationMs, &ne.TokensIn, &ne.TokensOut); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			ne.CompletedAt = &completedAt.Time
		}
		out = append(out, ne)
	}
	return out, rows.Err()
}

const nodeExecutionColumns = `id, execution_id, node_id, node_type, status, iteration_number,
	input, output, started_at, completed_at, duration_ms, tokens_in, tokens_out`

// NodeExecutionsForIteration implements internal/workflow.Store.
func (s *SQLiteStore) NodeExecutionsForIteration(ctx context.Context, executionID string, iteration int) ([]models.NodeExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeExecutionColumns+` FROM node_executions WHERE execution_id = ? AND iteration_number = ?`,
		executionID, iteration)
	if err != nil {
		return nil, err
	}
	return s.scanNodeExecutions(rows)
}

// NodeExecutionsForNode implements internal/workflow.Store.
func (s *SQLiteStore) NodeExecutionsForNode(ctx context.Context, executionID, nodeID string) ([]models.NodeExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeExecutionColumns+` FROM node_executions WHERE execution_id = ? AND node_id = ? ORDER BY iteration_number ASC`,
		executionID, nodeID)
	if err != nil {
		return nil, err
	}
	return s.scanNodeExecutions(rows)
}

// --- messages -------------------------------------------------------------

// CreateMessage implements internal/workflow.Store.
func (s *SQLiteStore) CreateMessage(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, execution_id, role, agent_id, content, node_execution_id,
			is_complete, is_tool_use_iter, is_final_iter, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ExecutionID, m.Role, m.AgentID, m.Content, m.NodeExecutionID,
		m.IsComplete, m.IsToolUseIter, m.IsFinalIter, m.CreatedAt)
	return err
}

// UpdateMessage implements internal/workflow.Store.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, m *models.Message) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET content=?, is_complete=?, is_tool_use_iter=?, is_final_iter=? WHERE id=?
	`, m.Content, m.IsComplete, m.IsToolUseIter, m.IsFinalIter, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.CreateMessage(ctx, m)
	}
	return nil
}

// --- context items ----------------------------------------------------

// CreateContextItem implements internal/workflow.Store.
func (s *SQLiteStore) CreateContextItem(ctx context.Context, c *models.ContextItem) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO context_items (id, execution_id, item_type, content, agent_id, feedback_status,
			iteration_number, is_active, compacted_into_id, tokens, is_complete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.ExecutionID, c.ItemType, c.Content, c.AgentID, c.FeedbackStatus,
		c.IterationNumber, c.IsActive, c.CompactedIntoID, c.Tokens, c.IsComplete)
	return err
}

// ContextItems implements internal/workflow.Store, ordered so callers
// can reconstruct prompt-building order.
func (s *SQLiteStore) ContextItems(ctx context.Context, executionID string) ([]models.ContextItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, execution_id, item_type, content, agent_id, feedback_status, iteration_number,
			is_active, compacted_into_id, tokens, is_complete
		FROM context_items WHERE execution_id = ? ORDER BY rowid ASC`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContextItem
	for rows.Next() {
		var c models.ContextItem
		if err := rows.Scan(&c.ID, &c.ExecutionID, &c.ItemType, &c.Content, &c.AgentID, &c.FeedbackStatus,
			&c.IterationNumber, &c.IsActive, &c.CompactedIntoID, &c.Tokens, &c.IsComplete); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- checkpoints -----------------------------------------------------

// CreateCheckpoint implements internal/workflow.Store.
func (s *SQLiteStore) CreateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	opts, err := json.Marshal(c.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, execution_id, node_execution_id, checkpoint_type, prompt_message, options, decision, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.ExecutionID, c.NodeExecutionID, c.CheckpointType, c.PromptMessage, string(opts), c.Decision, c.Feedback)
	return err
}

// UpdateCheckpoint implements internal/workflow.Store.
func (s *SQLiteStore) UpdateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `UPDATE checkpoints SET decision=?, feedback=? WHERE id=?`, c.Decision, c.Feedback, c.ID)
	return err
}

// --- review panels -----------------------------------------------------

// CreateReviewPanelExecution implements internal/workflow.Store.
func (s *SQLiteStore) CreateReviewPanelExecution(ctx context.Context, r *models.ReviewPanelExecution) error {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO review_panel_executions (id, node_execution_id, config, status, outcome, summary)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.NodeExecutionID, string(cfg), r.Status, r.Outcome, r.Summary); err != nil {
		return err
	}
	for _, v := range r.Votes {
		issues, err := json.Marshal(v.Issues)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO review_panel_votes (id, review_panel_execution_id, reviewer_id, vote, feedback, issues, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.ID+":"+v.ReviewerID, r.ID, v.ReviewerID, v.Vote, v.Feedback, string(issues), v.Weight); err != nil {
			return err
		}
	}
	return tx.Commit()
}
