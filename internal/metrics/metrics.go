// Package metrics provides Prometheus instrumentation for the workflow
// executor: execution/node throughput and latency, review panel
// outcomes, and loop/handoff counters. Grounded on the teacher's
// internal/observability/metrics.go (promauto-registered CounterVec/
// HistogramVec/GaugeVec fields plus small Record* helper methods).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the scheduler and review panel service
// report to. Construct once at process startup with New and share it.
type Metrics struct {
	// ExecutionsStarted counts executions entering the running state.
	// Labels: workflow_id
	ExecutionsStarted *prometheus.CounterVec

	// ExecutionsFinished counts executions reaching a terminal state.
	// Labels: workflow_id, status (completed|failed|cancelled)
	ExecutionsFinished *prometheus.CounterVec

	// ExecutionDuration measures wall-clock time from start to terminal state.
	// Labels: workflow_id, status
	ExecutionDuration *prometheus.HistogramVec

	// NodeExecutions counts individual node dispatches.
	// Labels: node_type, status (completed|failed)
	NodeExecutions *prometheus.CounterVec

	// NodeDuration measures a single node handler invocation.
	// Labels: node_type
	NodeDuration *prometheus.HistogramVec

	// ActiveExecutions tracks in-flight (running or paused) executions.
	ActiveExecutions prometheus.Gauge

	// ReviewPanelOutcomes counts completed review panels by outcome.
	// Labels: outcome (approved|rejected|escalated)
	ReviewPanelOutcomes *prometheus.CounterVec

	// ReviewPanelDuration measures one RunPanel call.
	ReviewPanelDuration prometheus.Histogram

	// LoopIterations counts loop-node passes.
	// Labels: mode (for_each|times|while)
	LoopIterations *prometheus.CounterVec

	// AgentHandoffs counts dynamic handoff nodes injected.
	AgentHandoffs prometheus.Counter

	// TokensUsed tracks token consumption per agent turn.
	// Labels: agent_id, type (prompt|completion)
	TokensUsed *prometheus.CounterVec
}

// New creates and registers every collector with Prometheus's default
// registry. Call once at process startup.
func New() *Metrics {
	return &Metrics{
		ExecutionsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflowcore_executions_started_total",
				Help: "Total executions entering the running state, by workflow",
			},
			[]string{"workflow_id"},
		),
		ExecutionsFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflowcore_executions_finished_total",
				Help: "Total executions reaching a terminal state, by workflow and status",
			},
			[]string{"workflow_id", "status"},
		),
		ExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflowcore_execution_duration_seconds",
				Help:    "Execution wall-clock time from start to terminal state",
				Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
			},
			[]string{"workflow_id", "status"},
		),
		NodeExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflowcore_node_executions_total",
				Help: "Total node dispatches by node type and outcome",
			},
			[]string{"node_type", "status"},
		),
		NodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflowcore_node_duration_seconds",
				Help:    "Single node handler invocation latency",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"node_type"},
		),
		ActiveExecutions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "workflowcore_active_executions",
				Help: "Executions currently running or paused",
			},
		),
		ReviewPanelOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflowcore_review_panel_outcomes_total",
				Help: "Completed review panels by outcome",
			},
			[]string{"outcome"},
		),
		ReviewPanelDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workflowcore_review_panel_duration_seconds",
				Help:    "Time spent running one review panel to completion",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120},
			},
		),
		LoopIterations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflowcore_loop_iterations_total",
				Help: "Loop node passes by loop mode",
			},
			[]string{"mode"},
		),
		AgentHandoffs: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "workflowcore_agent_handoffs_total",
				Help: "Dynamic handoff nodes injected by agent turns",
			},
		),
		TokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflowcore_tokens_total",
				Help: "Token consumption per agent turn",
			},
			[]string{"agent_id", "type"},
		),
	}
}

// ExecutionStarted records an execution moving into the running state.
func (m *Metrics) ExecutionStarted(workflowID string) {
	m.ExecutionsStarted.WithLabelValues(workflowID).Inc()
	m.ActiveExecutions.Inc()
}

// ExecutionFinished records an execution reaching a terminal state.
func (m *Metrics) ExecutionFinished(workflowID, status string, duration time.Duration) {
	m.ExecutionsFinished.WithLabelValues(workflowID, status).Inc()
	m.ExecutionDuration.WithLabelValues(workflowID, status).Observe(duration.Seconds())
	m.ActiveExecutions.Dec()
}

// NodeExecuted records one node handler invocation.
func (m *Metrics) NodeExecuted(nodeType, status string, duration time.Duration) {
	m.NodeExecutions.WithLabelValues(nodeType, status).Inc()
	m.NodeDuration.WithLabelValues(nodeType).Observe(duration.Seconds())
}

// ReviewPanelCompleted records a finished review panel run.
func (m *Metrics) ReviewPanelCompleted(outcome string, duration time.Duration) {
	m.ReviewPanelOutcomes.WithLabelValues(outcome).Inc()
	m.ReviewPanelDuration.Observe(duration.Seconds())
}

// LoopIterated records one pass of a loop node.
func (m *Metrics) LoopIterated(mode string) {
	m.LoopIterations.WithLabelValues(mode).Inc()
}

// AgentHandoff records a dynamic handoff node injection.
func (m *Metrics) AgentHandoff() {
	m.AgentHandoffs.Inc()
}

// RecordTokens records prompt/completion token usage for an agent turn.
func (m *Metrics) RecordTokens(agentID string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		m.TokensUsed.WithLabelValues(agentID, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.TokensUsed.WithLabelValues(agentID, "completion").Add(float64(completionTokens))
	}
}
