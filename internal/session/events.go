package session

import "github.com/flowcore/workflowcore/internal/models"

// EventType names the events the send-and-stream loop emits.
type EventType string

const (
	EventIterationStart    EventType = "iteration_start"
	EventIterationComplete EventType = "iteration_complete"
	EventToolUseStarted    EventType = "tool_use_started"
	EventToolUseResult     EventType = "tool_use_result"
	EventToolUseRequest    EventType = "tool_use_request"
	EventLoopComplete      EventType = "loop_complete"
	EventMessageDelta      EventType = "message_delta"
	EventMessageEnd        EventType = "message_end"
	EventError             EventType = "error"
)

// Event is one increment of the send-and-stream loop.
type Event struct {
	Type                     EventType
	Iteration                int
	PreviousIterationContent string
	HasToolUse               bool
	ToolUse                  *models.ToolCall
	ToolResult               *models.ToolResult
	AutoApproved             bool
	ApprovalScope            models.ApprovalScope
	TextDelta                string
	Err                      error
}
