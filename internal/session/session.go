package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/permission"
	"github.com/flowcore/workflowcore/internal/provider"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
	"github.com/flowcore/workflowcore/internal/toolexec"
)

// Key uniquely identifies a session as a (chatId, agentId) pair, per
// spec section 4.5.
type Key struct {
	ChatID  string
	AgentID string
}

// String renders the key for use as a permission sessionId, map key,
// or log field.
func (k Key) String() string { return k.ChatID + ":" + k.AgentID }

// Session is one (chatId, agentId)'s lifecycle: provider connection,
// cumulative message history, and per-call configuration.
type Session struct {
	Key Key

	Agent       *models.Agent
	OtherAgents []models.Agent // for the delegation preamble

	Provider    provider.Provider
	Translator  toolcatalog.Translator
	Permissions *permission.Service
	Executor    *toolexec.Executor

	Cwd         string
	MaxTokens   int
	Temperature float64

	mu           sync.Mutex
	state        State
	history      []provider.ChatMessage
	cliSessionID string
}

// DefaultMaxTokens mirrors the spec's per-message default.
const DefaultMaxTokens = 16384

// New returns an idle Session for agent within chatID.
func New(chatID string, agent *models.Agent, prov provider.Provider, translator toolcatalog.Translator, perms *permission.Service, exec *toolexec.Executor) *Session {
	return &Session{
		Key:         Key{ChatID: chatID, AgentID: agent.ID},
		Agent:       agent,
		Provider:    prov,
		Translator:  translator,
		Permissions: perms,
		Executor:    exec,
		MaxTokens:   DefaultMaxTokens,
		state:       StateIdle,
	}
}

// State returns the session's current finite state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// History returns a copy of the session's wire-level transcript.
func (s *Session) History() []provider.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]provider.ChatMessage{}, s.history...)
}

// SetHistory loads a prior transcript, e.g. when resuming a session
// after a restart.
func (s *Session) SetHistory(h []provider.ChatMessage) {
	s.mu.Lock()
	s.history = append([]provider.ChatMessage{}, h...)
	s.mu.Unlock()
}

// CLISessionID returns the provider-side session id captured from a
// prior response, if any (spec section 4.5 "CLI-session capture").
func (s *Session) CLISessionID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cliSessionID, s.cliSessionID != ""
}

// SetCLISessionID seeds a provider-side session id, allowing resumption
// across process restarts.
func (s *Session) SetCLISessionID(id string) {
	s.mu.Lock()
	s.cliSessionID = id
	s.mu.Unlock()
	s.Provider.SetSessionID(id)
}

// SystemPrompt builds the agent's system prompt, appending a
// delegation preamble enumerating other available agents when the
// session operates within a multi-agent workflow.
func (s *Session) SystemPrompt() string {
	if len(s.OtherAgents) == 0 {
		return s.Agent.SystemPrompt
	}
	var b strings.Builder
	b.WriteString(s.Agent.SystemPrompt)
	b.WriteString("\n\nYou may delegate to the following agents:\n")
	for _, a := range s.OtherAgents {
		fmt.Fprintf(&b, "- %s (%s): %s\n", a.ID, a.Name, a.Role)
	}
	return b.String()
}

// FilterTools retains only tools the agent's AllowedTools allows, minus
// anything in deniedTools, applied to the provider's already-translated
// tool set (spec section 4.5 "Tool filtering").
func (s *Session) FilterTools(translated []toolcatalog.ProviderTool, deniedTools []string) []toolcatalog.ProviderTool {
	names := make([]string, len(translated), len(translated))
	byName := make(map[string]toolcatalog.ProviderTool, len(translated))
	for i, t := range translated {
		names[i] = t.Name
		byName[t.Name] = t
	}
	kept := s.Agent.FilterTools(names, deniedTools)
	out := make([]toolcatalog.ProviderTool, 0, len(kept))
	for _, n := range kept {
		out = append(out, byName[n])
	}
	return out
}
