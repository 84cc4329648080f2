// Package agents implements the Agent Registry (spec section 4.6):
// storage for Agent records, with immutable pre-seeded system agents.
// Grounded on the teacher's internal/agents/identity.go persona-record
// pattern, adapted to the spec's simpler Agent shape.
package agents

import (
	"sync"

	"github.com/google/uuid"

	"github.com/flowcore/workflowcore/internal/models"
)

// SystemAgentIDs are the pre-seeded, immutable system agents.
var SystemAgentIDs = []string{"assistant", "coder", "code-reviewer", "architect"}

// Registry stores Agent records, keyed by id.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]models.Agent
}

// New returns a Registry pre-seeded with the system agents.
func New() *Registry {
	r := &Registry{agents: map[string]models.Agent{}}
	for _, id := range SystemAgentIDs {
		r.agents[id] = defaultSystemAgent(id)
	}
	return r
}

func defaultSystemAgent(id string) models.Agent {
	return models.Agent{
		ID:       id,
		Name:     id,
		Role:     id,
		Provider: "claude",
		Model:    "claude-sonnet",
		IsSystem: true,
		IsActive: true,
	}
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (models.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	return a, ok
}

// List returns every registered agent.
func (r *Registry) List() []models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}

// Register adds or replaces a non-system agent. Registering over a
// system agent id is a no-op.
func (r *Registry) Register(a models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.agents[a.ID]; ok && existing.IsSystem {
		return
	}
	r.agents[a.ID] = a
}

// Update mutates a non-system agent via fn. System agents silently
// no-op, per spec section 4.6.
func (r *Registry) Update(id string, fn func(*models.Agent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok || a.IsSystem {
		return
	}
	fn(&a)
	r.agents[id] = a
}

// Delete removes a non-system agent. System agents silently no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok && a.IsSystem {
		return
	}
	delete(r.agents, id)
}

// Duplicate returns a mutable copy of an existing agent under a new id
// and name, with IsSystem forced false, and registers it.
func (r *Registry) Duplicate(id, newName string) (models.Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.agents[id]
	if !ok {
		return models.Agent{}, false
	}
	dup := src
	dup.ID = uuid.NewString()
	dup.Name = newName
	dup.IsSystem = false
	r.agents[dup.ID] = dup
	return dup, true
}
