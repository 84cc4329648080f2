package ctxwindow

import (
	"sort"
	"strings"
	"time"
)

// Role is a provider-facing message role, distinct from models.Role
// (the chat-display role): the spec's torso filter speaks in terms of
// user/assistant/system, matching the wire protocol rather than the UI.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ActiveMessage is one candidate torso entry.
type ActiveMessage struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Compaction is a summary standing in for one or more deactivated
// active messages. It is "applied" (spec section 4.4) once its
// StartMessageID is no longer present among the active messages.
type Compaction struct {
	ID             string
	Summary        string
	StartMessageID string
	CreatedAt      time.Time
}

// BuildInput is everything the builder needs to assemble one prompt.
type BuildInput struct {
	SystemPrompt     string
	ActiveMessages   []ActiveMessage
	Compactions      []Compaction
	ContextWindow    int
	TailInstructions string
}

// TorsoEntry is one assembled torso message, either a real active
// message or an injected compaction summary (system role).
type TorsoEntry struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// BuildResult is what Build returns.
type BuildResult struct {
	Messages           []TorsoEntry
	TotalTokens        int
	ExceedsWindow      bool
	MessagesLoaded     int
	CompactionsApplied int
}

const placeholderNoResponse = "(No response)"

// Build assembles a token-budgeted prompt per spec section 4.4.
func Build(in BuildInput) BuildResult {
	active := filterActive(in.ActiveMessages)
	activeIDs := make(map[string]bool, len(active))
	for _, m := range active {
		activeIDs[m.ID] = true
	}

	applied := 0
	entries := make([]TorsoEntry, 0, len(active)+len(in.Compactions))
	for _, m := range active {
		entries = append(entries, TorsoEntry{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	for _, c := range in.Compactions {
		if activeIDs[c.StartMessageID] {
			continue // original still active: not yet applied
		}
		applied++
		entries = append(entries, TorsoEntry{Role: RoleSystem, Content: c.Summary, CreatedAt: c.CreatedAt})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	budget := Budget(in.ContextWindow, in.SystemPrompt, in.TailInstructions)
	entries, torsoTokens := trimToBudget(entries, budget)

	total := EstimateTokens(in.SystemPrompt) + EstimateTokens(in.TailInstructions) + torsoTokens
	return BuildResult{
		Messages:           entries,
		TotalTokens:        total,
		ExceedsWindow:      total > in.ContextWindow,
		MessagesLoaded:     len(entries),
		CompactionsApplied: applied,
	}
}

func filterActive(in []ActiveMessage) []ActiveMessage {
	out := make([]ActiveMessage, 0, len(in))
	for _, m := range in {
		if m.Role != RoleUser && m.Role != RoleAssistant && m.Role != RoleSystem {
			continue
		}
		trimmed := strings.TrimSpace(m.Content)
		if trimmed == "" {
			continue
		}
		if trimmed == placeholderNoResponse {
			continue
		}
		if m.Role == RoleAssistant && len(trimmed) < 5 {
			continue
		}
		out = append(out, m)
	}
	return out
}

func trimToBudget(entries []TorsoEntry, budget int) ([]TorsoEntry, int) {
	total := sumTokens(entries)
	for total > budget && len(entries) > 1 {
		total -= EstimateTokens(entries[0].Content)
		entries = entries[1:]
	}
	return entries, total
}

func sumTokens(entries []TorsoEntry) int {
	total := 0
	for _, e := range entries {
		total += EstimateTokens(e.Content)
	}
	return total
}
