// Package session implements the AI Session Manager (spec section
// 4.5): per-(chat x agent) session lifecycle, provider dispatch, the
// streaming send-and-stream loop, and orphan tool-use repair. Modeled
// as an explicit finite-state machine per the teacher's
// internal/agent/loop.go AgenticLoop, rather than nested callbacks, per
// spec section 9's design note.
package session

// State names the send-and-stream loop's finite states.
type State string

const (
	StateIdle              State = "idle"
	StateStreaming         State = "streaming"
	StateWaitingForTool    State = "waiting_for_tool"
	StateAwaitingPermission State = "awaiting_permission"
	StateCancelled         State = "cancelled"
)
