package ctxwindow

import "time"

// State is the compaction lifecycle for one session, grounded on the
// teacher's CompactionState enum (internal/agent/compaction.go).
type State string

const (
	StateIdle            State = "idle"
	StatePending         State = "pending"
	StateAwaitingConfirm State = "awaiting_confirm"
	StateInProgress      State = "in_progress"
)

// Config parameterizes when a session should be offered or forced into
// compaction.
type Config struct {
	Enabled              bool
	ThresholdPercent     int
	ConfirmationTimeout  time.Duration
	AutoCompactOnTimeout bool
}

// DefaultConfig mirrors the teacher's CompactionConfig defaults.
var DefaultConfig = Config{
	Enabled:              true,
	ThresholdPercent:     80,
	ConfirmationTimeout:  5 * time.Minute,
	AutoCompactOnTimeout: true,
}

// CheckResult reports whether a session has crossed its compaction
// threshold.
type CheckResult struct {
	UsagePercent  int
	ShouldCompact bool
}

// Check computes usage against budget and reports whether the
// ThresholdPercent has been crossed. Pass the same BuildResult and
// contextWindow used to build the current prompt.
func Check(cfg Config, result BuildResult, contextWindow int) CheckResult {
	if contextWindow <= 0 {
		return CheckResult{}
	}
	percent := int(float64(result.TotalTokens) / float64(contextWindow) * 100)
	return CheckResult{
		UsagePercent:  percent,
		ShouldCompact: cfg.Enabled && percent >= cfg.ThresholdPercent,
	}
}

// Manager tracks per-session compaction state transitions.
type Manager struct {
	cfg      Config
	sessions map[string]State
}

// NewManager returns a Manager using cfg for every session.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, sessions: map[string]State{}}
}

// State returns a session's current compaction state, defaulting to Idle.
func (m *Manager) State(sessionID string) State {
	if s, ok := m.sessions[sessionID]; ok {
		return s
	}
	return StateIdle
}

// Transition moves a session to the given state.
func (m *Manager) Transition(sessionID string, s State) { m.sessions[sessionID] = s }
