package models

// Checkpoint is a workflow pause awaiting a human decision.
type Checkpoint struct {
	ID              string
	ExecutionID     string
	NodeExecutionID string
	CheckpointType  string
	PromptMessage   string
	Options         []string
	Decision        string
	Feedback        string
}

// Pending reports whether the checkpoint still blocks its execution.
func (c *Checkpoint) Pending() bool { return c.Decision == "" }

// FeedbackStatus enumerates a feedback queue item's lifecycle.
type FeedbackStatus string

const (
	FeedbackQueued        FeedbackStatus = "queued"
	FeedbackPendingReview FeedbackStatus = "pending_review"
	FeedbackAddressed     FeedbackStatus = "addressed"
	FeedbackDismissed     FeedbackStatus = "dismissed"
)

// SurfaceTrigger controls when a feedback item is presented.
type SurfaceTrigger string

const (
	SurfaceImmediate    SurfaceTrigger = "immediate"
	SurfaceIterationEnd SurfaceTrigger = "iteration_end"
	SurfaceTaskComplete SurfaceTrigger = "task_complete"
	SurfaceManual       SurfaceTrigger = "manual"
)

// FeedbackQueueItem is a queued piece of reviewer or user feedback
// awaiting surfacing to an agent.
type FeedbackQueueItem struct {
	ID            string
	ExecutionID   string
	ContextItemID string
	Status        FeedbackStatus
	Priority      int
	SurfaceTrigger SurfaceTrigger
}
