package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowcore/workflowcore/internal/models"
)

// memStore is an in-memory Store fake grounded on the teacher's
// internal/sessions in-memory store pattern, used by this package's
// tests so the scheduler's persistence boundary is exercised without a
// real database.
type memStore struct {
	mu sync.Mutex

	executions map[string]*models.Execution
	workflows  map[string]*models.Workflow
	nodeExecs  map[string]*models.NodeExecution // by id
	messages   map[string]*models.Message
	items      map[string][]*models.ContextItem // by executionID
	checkpoints map[string]*models.Checkpoint
	panels     []*models.ReviewPanelExecution
}

func newMemStore() *memStore {
	return &memStore{
		executions:  map[string]*models.Execution{},
		workflows:   map[string]*models.Workflow{},
		nodeExecs:   map[string]*models.NodeExecution{},
		messages:    map[string]*models.Message{},
		items:       map[string][]*models.ContextItem{},
		checkpoints: map[string]*models.Checkpoint{},
	}
}

func (m *memStore) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) SaveExecution(ctx context.Context, e *models.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.executions[e.ID] = &cp
	return nil
}

func (m *memStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s not found", id)
	}
	return w, nil
}

func (m *memStore) CreateNodeExecution(ctx context.Context, ne *models.NodeExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ne
	m.nodeExecs[ne.ID] = &cp
	return nil
}

func (m *memStore) UpdateNodeExecution(ctx context.Context, ne *models.NodeExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ne
	m.nodeExecs[ne.ID] = &cp
	return nil
}

func (m *memStore) NodeExecutionsForIteration(ctx context.Context, executionID string, iteration int) ([]models.NodeExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NodeExecution
	for _, ne := range m.nodeExecs {
		if ne.ExecutionID == executionID && ne.IterationNumber == iteration {
			out = append(out, *ne)
		}
	}
	return out, nil
}

func (m *memStore) NodeExecutionsForNode(ctx context.Context, executionID, nodeID string) ([]models.NodeExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NodeExecution
	for _, ne := range m.nodeExecs {
		if ne.ExecutionID == executionID && ne.NodeID == nodeID {
			out = append(out, *ne)
		}
	}
	return out, nil
}

func (m *memStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *memStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	return m.CreateMessage(ctx, msg)
}

func (m *memStore) CreateContextItem(ctx context.Context, c *models.ContextItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.items[c.ExecutionID] = append(m.items[c.ExecutionID], &cp)
	return nil
}

func (m *memStore) ContextItems(ctx context.Context, executionID string) ([]models.ContextItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ContextItem, 0, len(m.items[executionID]))
	for _, it := range m.items[executionID] {
		out = append(out, *it)
	}
	return out, nil
}

func (m *memStore) CreateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.checkpoints[c.ID] = &cp
	return nil
}

func (m *memStore) UpdateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	return m.CreateCheckpoint(ctx, c)
}

func (m *memStore) CreateReviewPanelExecution(ctx context.Context, r *models.ReviewPanelExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels = append(m.panels, r)
	return nil
}

// fakeNotifier records every published topic for assertions.
type fakeNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *fakeNotifier) Publish(topic string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
}

// fakeRunner is a scripted AgentRunner: it returns textFor(agentID) and
// never issues handoffs unless handoffFor is set for that agent.
type fakeRunner struct {
	textFor    map[string]string
	handoffFor map[string]*HandoffRequest
}

func (r *fakeRunner) RunAgentTurn(ctx context.Context, req AgentTurnRequest) (AgentTurnResult, error) {
	if req.OnMessageEvent != nil {
		req.OnMessageEvent(MessageEvent{Type: MessageStarted})
		req.OnMessageEvent(MessageEvent{Type: MessageDelta, TextDelta: r.textFor[req.AgentID]})
	}
	var handoff *HandoffRequest
	if r.handoffFor != nil {
		handoff = r.handoffFor[req.AgentID]
	}
	return AgentTurnResult{FinalText: r.textFor[req.AgentID], TokensIn: 10, TokensOut: 20, HandoffRequest: handoff}, nil
}
