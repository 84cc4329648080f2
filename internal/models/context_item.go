package models

// ContextItemType enumerates the prompt-building record kinds.
type ContextItemType string

const (
	ItemUserInput   ContextItemType = "user_input"
	ItemAgentOutput ContextItemType = "agent_output"
	ItemSystem      ContextItemType = "system"
	ItemToolCall    ContextItemType = "tool_call"
	ItemToolResult  ContextItemType = "tool_result"
	ItemFeedback    ContextItemType = "feedback"
	ItemCompaction  ContextItemType = "compaction"
)

// ContextItem is a prompt-building record, distinct from the
// chat-visible Message. A compacted item points at the summary item
// that replaced it; the invariant compactedIntoId != "" => !isActive
// is enforced by Deactivate.
type ContextItem struct {
	ID              string
	ExecutionID     string
	ItemType        ContextItemType
	Content         string
	AgentID         string
	FeedbackStatus  string
	IterationNumber int
	IsActive        bool
	CompactedIntoID string
	Tokens          int
	IsComplete      bool
}

// Deactivate marks the item as compacted into the given summary item,
// preserving the compactedIntoId => !isActive invariant.
func (c *ContextItem) Deactivate(summaryID string) {
	c.CompactedIntoID = summaryID
	c.IsActive = false
}

// Validate enforces the compaction invariant described in spec section 3.
func (c *ContextItem) Validate() error {
	if c.CompactedIntoID != "" && c.IsActive {
		return &ValidationError{Msg: "context item " + c.ID + " is compacted but marked active"}
	}
	return nil
}
