package models

// VotingStrategy selects a review panel's aggregation rule.
type VotingStrategy string

const (
	StrategyWeightedThreshold VotingStrategy = "weighted_threshold"
	StrategyUnanimous         VotingStrategy = "unanimous"
	StrategyMajority          VotingStrategy = "majority"
	StrategyAnyCritical       VotingStrategy = "any_critical"
	StrategyQuorum            VotingStrategy = "quorum"
)

// VoteValue is a single reviewer's verdict.
type VoteValue string

const (
	VoteCritical       VoteValue = "critical"
	VoteRequestChanges VoteValue = "request_changes"
	VoteApprove        VoteValue = "approve"
	VoteAbstain        VoteValue = "abstain"
)

// Outcome is the classified result of aggregating a panel's votes.
type Outcome string

const (
	OutcomeAddressCritical Outcome = "address_critical"
	OutcomeQueueChanges    Outcome = "queue_changes"
	OutcomeApproved        Outcome = "approved"
	OutcomeEscalate        Outcome = "escalate"
)

// OutcomeAction is what the scheduler does in response to an outcome.
type OutcomeAction string

const (
	ActionLoop     OutcomeAction = "loop"
	ActionContinue OutcomeAction = "continue"
	ActionPause    OutcomeAction = "pause"
	ActionComplete OutcomeAction = "complete"
)

// Reviewer is one seat on a review panel.
type Reviewer struct {
	AgentID  string
	Weight   int
	Required bool
	Prompt   string
}

// Thresholds parameterize the weighted_threshold and quorum strategies.
type Thresholds struct {
	CriticalBlocks    *bool
	ApproveThreshold  *float64
	ChangesThreshold  *float64
	Quorum            int
}

// DefaultCriticalBlocks is the spec's default for Thresholds.CriticalBlocks.
const DefaultCriticalBlocks = true

// DefaultApproveThreshold is the spec's default approve threshold.
const DefaultApproveThreshold = 0.7

// DefaultChangesThreshold is the spec's default changes threshold.
const DefaultChangesThreshold = 0.4

// OutcomeRoute is the routing instruction attached to one outcome.
type OutcomeRoute struct {
	Action OutcomeAction
	Target string
}

// ReviewPanelConfig is the per-node review panel configuration.
type ReviewPanelConfig struct {
	Reviewers  []Reviewer
	Strategy   VotingStrategy
	Thresholds Thresholds
	Outcomes   map[Outcome]OutcomeRoute
	Parallel   bool
	Timeout    int // seconds; 0 means no deadline
}

// Issue is a structured finding attached to a vote.
type Issue struct {
	Severity string
	Message  string
}

// Vote is one reviewer's verdict on a panel.
type Vote struct {
	ReviewerID string
	Vote       VoteValue
	Feedback   string
	Issues     []Issue
	Weight     int
}

// ReviewPanelStatus tracks a panel execution's lifecycle.
type ReviewPanelStatus string

const (
	ReviewPanelRunning   ReviewPanelStatus = "running"
	ReviewPanelCompleted ReviewPanelStatus = "completed"
)

// ReviewPanelExecution is the persisted record of one panel run.
type ReviewPanelExecution struct {
	ID              string
	NodeExecutionID string
	Config          ReviewPanelConfig
	Status          ReviewPanelStatus
	Votes           []Vote
	Outcome         Outcome
	Summary         string
}
