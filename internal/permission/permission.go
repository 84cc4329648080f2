// Package permission implements the three-tier scoped approval store
// described in spec section 4.2: a global/session/folder lookup with
// pending-request coordination, an event bus, and export/import.
// Modeled on the teacher's internal/agent/approval.go ApprovalChecker,
// generalized from a single per-agent policy into the spec's explicit
// scope hierarchy.
package permission

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/flowcore/workflowcore/internal/clock"
	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
)

// ErrUnknownRequest is returned by Approve/Deny when the tool-use id has
// no pending request (already resolved, expired, or never requested).
var ErrUnknownRequest = errors.New("permission: no pending request for that tool use id")

// Decision is the result of Check.
type Decision struct {
	Allowed  bool
	Approval *models.Approval
	Reason   string
}

// EventType names the kinds of events the Service publishes.
type EventType string

const (
	EventApprovalAdded    EventType = "approval_added"
	EventApprovalRemoved  EventType = "approval_removed"
	EventApprovalsCleared EventType = "approvals_cleared"
)

// Event is published to subscribers on approval-set changes.
type Event struct {
	Type     EventType
	ToolName string
	Scope    models.ApprovalScope
}

// terminalToolNames is the set of provider-dialect tool names that must
// never be auto-approved, built from the catalog's terminal category so
// it tracks the dialect name tables instead of being hand-duplicated.
var terminalToolNames = buildTerminalToolNames()

func buildTerminalToolNames() map[string]bool {
	var terminals []toolcatalog.CanonicalTool
	for _, t := range toolcatalog.List() {
		if t.Category == toolcatalog.CategoryTerminal {
			terminals = append(terminals, t)
		}
	}
	names := map[string]bool{}
	for _, dialect := range []string{"anthropic", "openai", "google"} {
		tr := toolcatalog.NewTranslator(dialect)
		for _, pt := range tr.ToProviderTools(terminals) {
			names[pt.Name] = true
		}
	}
	return names
}

// IsTerminalTool reports whether toolName names a terminal-execution
// tool in any known dialect.
func IsTerminalTool(toolName string) bool {
	return terminalToolNames[toolName]
}

type pendingRequest struct {
	toolName string
	ch       chan resolution
}

type resolution struct {
	allowed    bool
	scope      models.ApprovalScope
	folderPath string
}

// PendingResult is what a blocked caller of Request receives once the
// request is resolved by Approve or Deny.
type PendingResult struct {
	Allowed bool
}

// Service is the process-wide permission store. All methods are
// safe for concurrent use, matching spec section 5's "process-wide
// singleton" requirement.
type Service struct {
	clock clock.Clock

	mu      sync.Mutex
	global  map[string]models.Approval
	session map[string]map[string]models.Approval // sessionID -> toolName -> approval
	folder  map[string][]models.Approval           // toolName -> approvals, longest-prefix matched

	pending map[string]*pendingRequest

	subsMu sync.Mutex
	subs   []func(Event)
}

// NewService returns a Service pre-loaded with the default
// auto-approved tool set at global scope.
func NewService(c clock.Clock) *Service {
	s := &Service{
		clock:   c,
		global:  map[string]models.Approval{},
		session: map[string]map[string]models.Approval{},
		folder:  map[string][]models.Approval{},
		pending: map[string]*pendingRequest{},
	}
	for _, name := range toolcatalog.ReadOnlyFileTools {
		s.global[name] = models.Approval{ToolName: name, Scope: models.ScopeGlobal, GrantedAt: c.Now()}
	}
	return s
}

// NormalizePath converts backslashes to forward slashes and ensures a
// trailing slash, so folder-scope prefix matching is well-defined.
// Idempotent: NormalizePath(NormalizePath(p)) == NormalizePath(p).
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return "/"
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// Check implements the global -> session -> folder lookup priority.
// Expired entries are removed as they are discovered.
func (s *Service) Check(toolName, sessionID, targetPath string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if a, ok := s.global[toolName]; ok {
		if s.expired(a, now) {
			delete(s.global, toolName)
		} else {
			approval := a
			return Decision{Allowed: true, Approval: &approval}
		}
	}

	if bySession, ok := s.session[sessionID]; ok {
		if a, ok := bySession[toolName]; ok {
			if s.expired(a, now) {
				delete(bySession, toolName)
			} else {
				approval := a
				return Decision{Allowed: true, Approval: &approval}
			}
		}
	}

	if targetPath != "" {
		normalized := NormalizePath(targetPath)
		var best *models.Approval
		bestLen := -1
		remaining := s.folder[toolName][:0:0]
		for _, a := range s.folder[toolName] {
			if s.expired(a, now) {
				continue // dropped below by rebuilding remaining
			}
			remaining = append(remaining, a)
			if strings.HasPrefix(normalized, a.FolderPath) && len(a.FolderPath) > bestLen {
				approval := a
				best = &approval
				bestLen = len(a.FolderPath)
			}
		}
		s.folder[toolName] = remaining
		if best != nil {
			return Decision{Allowed: true, Approval: best}
		}
	}

	return Decision{Allowed: false, Reason: "no matching approval"}
}

func (s *Service) expired(a models.Approval, now time.Time) bool {
	return a.Expired(now)
}

// AddGlobal records a global-scope approval.
func (s *Service) AddGlobal(toolName string) {
	s.mu.Lock()
	s.global[toolName] = models.Approval{ToolName: toolName, Scope: models.ScopeGlobal, GrantedAt: s.clock.Now()}
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalAdded, ToolName: toolName, Scope: models.ScopeGlobal})
}

// RemoveGlobal removes a global-scope approval.
func (s *Service) RemoveGlobal(toolName string) {
	s.mu.Lock()
	delete(s.global, toolName)
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalRemoved, ToolName: toolName, Scope: models.ScopeGlobal})
}

// AddSession records a session-scope approval, optionally expiring.
func (s *Service) AddSession(sessionID, toolName string, expiresAt *time.Time) {
	s.mu.Lock()
	if s.session[sessionID] == nil {
		s.session[sessionID] = map[string]models.Approval{}
	}
	s.session[sessionID][toolName] = models.Approval{
		ToolName: toolName, Scope: models.ScopeSession, SessionID: sessionID,
		GrantedAt: s.clock.Now(), ExpiresAt: expiresAt,
	}
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalAdded, ToolName: toolName, Scope: models.ScopeSession})
}

// RemoveSession removes a session-scope approval.
func (s *Service) RemoveSession(sessionID, toolName string) {
	s.mu.Lock()
	if bySession, ok := s.session[sessionID]; ok {
		delete(bySession, toolName)
	}
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalRemoved, ToolName: toolName, Scope: models.ScopeSession})
}

// AddFolder records a folder-scope approval, optionally expiring.
func (s *Service) AddFolder(folderPath, toolName string, expiresAt *time.Time) {
	normalized := NormalizePath(folderPath)
	s.mu.Lock()
	s.folder[toolName] = append(s.folder[toolName], models.Approval{
		ToolName: toolName, Scope: models.ScopeFolder, FolderPath: normalized,
		GrantedAt: s.clock.Now(), ExpiresAt: expiresAt,
	})
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalAdded, ToolName: toolName, Scope: models.ScopeFolder})
}

// RemoveFolder removes a folder-scope approval matching folderPath exactly.
func (s *Service) RemoveFolder(folderPath, toolName string) {
	normalized := NormalizePath(folderPath)
	s.mu.Lock()
	approvals := s.folder[toolName]
	kept := approvals[:0]
	for _, a := range approvals {
		if a.FolderPath != normalized {
			kept = append(kept, a)
		}
	}
	s.folder[toolName] = kept
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalRemoved, ToolName: toolName, Scope: models.ScopeFolder})
}

// ClearSession drops every session-scope approval for sessionID.
func (s *Service) ClearSession(sessionID string) {
	s.mu.Lock()
	delete(s.session, sessionID)
	s.mu.Unlock()
	s.publish(Event{Type: EventApprovalsCleared})
}

// Subscribe registers an observer for approval-set change events.
// Exceptions (panics) in the callback are caught and swallowed so one
// bad subscriber cannot break approval propagation to the others.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	idx := len(s.subs)
	s.subs = append(s.subs, fn)
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if idx < len(s.subs) {
			s.subs[idx] = nil
		}
	}
}

func (s *Service) publish(e Event) {
	s.subsMu.Lock()
	subs := append([]func(Event){}, s.subs...)
	s.subsMu.Unlock()
	for _, fn := range subs {
		if fn == nil {
			continue
		}
		s.safeCall(fn, e)
	}
}

func (s *Service) safeCall(fn func(Event), e Event) {
	defer func() { _ = recover() }()
	fn(e)
}
