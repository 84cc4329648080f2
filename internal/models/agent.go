package models

// Agent is a named configuration invoked as a reasoning role in a
// workflow. System agents are immutable once registered.
type Agent struct {
	ID           string
	Name         string
	Role         string
	Provider     string
	Model        string
	SystemPrompt string
	Tools        []string
	PersonaID    string
	Agency       string
	IsSystem     bool
	IsActive     bool
}

// AllowedTools filters a candidate tool-name set down to this agent's
// allow/deny lists. A nil AllowedTools means "no restriction"; an empty
// DeniedTools means nothing is removed.
func (a *Agent) FilterTools(candidates []string, denied []string) []string {
	allowSet := map[string]bool(nil)
	if len(a.Tools) > 0 {
		allowSet = make(map[string]bool, len(a.Tools))
		for _, t := range a.Tools {
			allowSet[t] = true
		}
	}
	denySet := make(map[string]bool, len(denied))
	for _, t := range denied {
		denySet[t] = true
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if allowSet != nil && !allowSet[c] {
			continue
		}
		if denySet[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}
