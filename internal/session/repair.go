package session

import (
	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/provider"
)

// OrphanRepairContent is the synthetic tool_result content injected for
// every tool_use lacking a matching tool_result, per spec section 4.5
// step 1.
const OrphanRepairContent = "Operation cancelled by user"

// RepairOrphans scans a session's wire-level history and, for every
// tool_use id without a matching tool_result, injects a synthetic
// error tool_result. This must run before every provider call to
// preserve the invariant that a tool_use is immediately followed by
// its tool_result (spec sections 4.5 and 5), grounded on the teacher's
// internal/sessions/transcript_repair.go RepairToolCallPairing.
func RepairOrphans(history []provider.ChatMessage) []provider.ChatMessage {
	repaired := make([]provider.ChatMessage, 0, len(history))
	for i := 0; i < len(history); i++ {
		msg := history[i]
		repaired = append(repaired, msg)
		if msg.Role != provider.WireRoleAssistant || len(msg.ToolCalls) == 0 {
			continue
		}

		pendingIDs := make([]string, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			pendingIDs = append(pendingIDs, tc.ID)
		}

		if i+1 < len(history) && history[i+1].Role == provider.WireRoleTool {
			next := history[i+1]
			missing := missingIDs(pendingIDs, next.ToolResults)
			if len(missing) > 0 {
				next.ToolResults = append(append([]models.ToolResult{}, next.ToolResults...), syntheticResults(missing)...)
			}
			repaired = append(repaired, next)
			i++
			continue
		}

		repaired = append(repaired, provider.ChatMessage{
			Role:        provider.WireRoleTool,
			ToolResults: syntheticResults(pendingIDs),
		})
	}
	return repaired
}

func missingIDs(pending []string, have []models.ToolResult) []string {
	present := make(map[string]bool, len(have))
	for _, r := range have {
		present[r.ToolUseID] = true
	}
	var missing []string
	for _, id := range pending {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func syntheticResults(ids []string) []models.ToolResult {
	out := make([]models.ToolResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ToolResult{ToolUseID: id, Content: OrphanRepairContent, IsError: true})
	}
	return out
}

// ValidatePairing reports whether history already satisfies the
// tool_use/tool_result pairing invariant, used by tests asserting
// universal invariant 2 (spec section 8).
func ValidatePairing(history []provider.ChatMessage) bool {
	for i, msg := range history {
		if msg.Role != provider.WireRoleAssistant || len(msg.ToolCalls) == 0 {
			continue
		}
		if i+1 >= len(history) || history[i+1].Role != provider.WireRoleTool {
			return false
		}
		have := make(map[string]bool, len(history[i+1].ToolResults))
		for _, r := range history[i+1].ToolResults {
			have[r.ToolUseID] = true
		}
		for _, tc := range msg.ToolCalls {
			if !have[tc.ID] {
				return false
			}
		}
	}
	return true
}
