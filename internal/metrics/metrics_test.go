package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestNewRegistersAllCollectors exercises New() exactly once: it
// registers on the process-global default registry, so a second call
// within the same test binary would panic on duplicate registration.
func TestNewRegistersAllCollectors(t *testing.T) {
	m := New()
	m.ExecutionStarted("wf-1")
	m.ExecutionFinished("wf-1", "completed", 2*time.Second)
	m.NodeExecuted("agent", "completed", 100*time.Millisecond)
	m.ReviewPanelCompleted("approved", time.Second)
	m.LoopIterated("for_each")
	m.AgentHandoff()
	m.RecordTokens("coder", 100, 50)

	if got := testutil.ToFloat64(m.ExecutionsStarted.WithLabelValues("wf-1")); got != 1 {
		t.Fatalf("ExecutionsStarted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ExecutionsFinished.WithLabelValues("wf-1", "completed")); got != 1 {
		t.Fatalf("ExecutionsFinished = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TokensUsed.WithLabelValues("coder", "prompt")); got != 100 {
		t.Fatalf("TokensUsed prompt = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.TokensUsed.WithLabelValues("coder", "completion")); got != 50 {
		t.Fatalf("TokensUsed completion = %v, want 50", got)
	}
}

// TestCounterVecBehavior verifies label-combination counting against an
// isolated registry, avoiding duplicate registration against the
// process default registry used by New().
func TestCounterVecBehavior(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_node_executions_total", Help: "test"},
		[]string{"node_type", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("agent", "completed").Inc()
	counter.WithLabelValues("agent", "completed").Inc()
	counter.WithLabelValues("router", "completed").Inc()

	if count := testutil.CollectAndCount(counter); count != 2 {
		t.Fatalf("CollectAndCount() = %d, want 2 label combinations", count)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("agent", "completed")); got != 2 {
		t.Fatalf("agent/completed = %v, want 2", got)
	}
}
