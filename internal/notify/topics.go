package notify

// Canonical topic names from spec section 6. The scheduler and session
// manager publish these; host IDEs subscribe to some or all of them.
const (
	TopicActivity = "workflow/activity"

	TopicMessageStarted   = "workflow/message/started"
	TopicMessageDelta     = "workflow/message/delta"
	TopicMessageCompleted = "workflow/message/completed"
	TopicMessageError     = "workflow/message/error"
	TopicMessageToolUse   = "workflow/message/tool_use"

	TopicAwaitingInput = "workflow/awaiting_input"
	TopicSplitStarted  = "workflow/split/started"
	TopicMergeComplete = "workflow/merge/completed"
	TopicOutput        = "workflow/output"

	TopicReviewPanelStarted   = "workflow/review_panel/started"
	TopicReviewPanelVote      = "workflow/review_panel/vote"
	TopicReviewPanelCompleted = "workflow/review_panel/completed"

	TopicWorkflowCompleted = "workflow/completed"
	TopicWorkflowFailed    = "workflow/failed"
	TopicCheckpointCreated = "workflow/checkpoint/created"

	TopicSessionCreated = "session_created"
	TopicMessageAdded   = "message_added"
	TopicStreamEvent    = "stream_event"
	TopicSessionUpdated = "session_updated"
	TopicSessionDeleted = "session_deleted"
)

// Activity publishes a workflow/activity notification describing one
// execution or node lifecycle transition.
func (b *Bus) Activity(executionID, kind string, extra map[string]any) {
	payload := map[string]any{"executionId": executionID, "kind": kind}
	for k, v := range extra {
		payload[k] = v
	}
	b.Publish(TopicActivity, payload)
}

// Session publishes a session-lifecycle notification (spec section 6's
// session events), keyed by sessionId rather than executionId.
func (b *Bus) Session(topic, sessionID string, extra map[string]any) {
	payload := map[string]any{"sessionId": sessionID}
	for k, v := range extra {
		payload[k] = v
	}
	b.Publish(topic, payload)
}
