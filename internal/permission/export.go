package permission

import (
	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
)

// ExportedApprovals is the serializable snapshot covering folder and
// global approvals only; session approvals are transient by design and
// are never exported.
type ExportedApprovals struct {
	Global []models.Approval
	Folder []models.Approval
}

// Export snapshots the current folder and global approvals, excluding
// the default auto-approved set so re-import does not duplicate it.
func (s *Service) Export() ExportedApprovals {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := map[string]bool{}
	for _, name := range toolcatalog.ReadOnlyFileTools {
		defaults[name] = true
	}

	out := ExportedApprovals{}
	for name, a := range s.global {
		if defaults[name] {
			continue
		}
		out.Global = append(out.Global, a)
	}
	for _, approvals := range s.folder {
		out.Folder = append(out.Folder, approvals...)
	}
	return out
}

// Import restores global and folder approvals from a prior Export.
func (s *Service) Import(snapshot ExportedApprovals) {
	for _, a := range snapshot.Global {
		s.AddGlobal(a.ToolName)
	}
	for _, a := range snapshot.Folder {
		s.AddFolder(a.FolderPath, a.ToolName, a.ExpiresAt)
	}
}
