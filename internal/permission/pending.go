package permission

import (
	"time"

	"github.com/flowcore/workflowcore/internal/models"
)

// ToolUse is the minimal shape Request needs: enough to key the
// pending-request map and to record an approval if the caller grants a
// durable scope.
type ToolUse struct {
	ID       string
	ToolName string
}

// Request registers a pending approval request and returns a channel
// that is sent to exactly once, by Approve or Deny. Terminal tools
// always go through this path (the caller is expected to have already
// checked Service.Check and found it disallowed).
func (s *Service) Request(use ToolUse) <-chan PendingResult {
	s.mu.Lock()
	ch := make(chan resolution, 1)
	s.pending[use.ID] = &pendingRequest{toolName: use.ToolName, ch: ch}
	s.mu.Unlock()

	out := make(chan PendingResult, 1)
	go func() {
		r := <-ch
		out <- PendingResult{Allowed: r.allowed}
	}()
	return out
}

// Approve resolves a pending request as allowed. Scopes of session or
// folder additionally record a persistent approval; once leaves no
// record.
func (s *Service) Approve(toolUseID string, scope models.ApprovalScope, sessionID, folderPath string, expiresAt *time.Time) error {
	s.mu.Lock()
	req, ok := s.pending[toolUseID]
	if ok {
		delete(s.pending, toolUseID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownRequest
	}

	switch scope {
	case models.ScopeSession:
		s.AddSession(sessionID, req.toolName, expiresAt)
	case models.ScopeFolder:
		s.AddFolder(folderPath, req.toolName, expiresAt)
	case models.ScopeGlobal:
		s.AddGlobal(req.toolName)
	case models.ScopeOnce, "":
		// no persistent record
	}

	req.ch <- resolution{allowed: true, scope: scope, folderPath: folderPath}
	return nil
}

// Deny resolves a pending request as denied, recording nothing.
func (s *Service) Deny(toolUseID string) error {
	s.mu.Lock()
	req, ok := s.pending[toolUseID]
	if ok {
		delete(s.pending, toolUseID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownRequest
	}
	req.ch <- resolution{allowed: false}
	return nil
}

// HasPending reports whether toolUseID still has an unresolved request.
func (s *Service) HasPending(toolUseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[toolUseID]
	return ok
}
