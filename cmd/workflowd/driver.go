package main

import (
	"context"
	"time"

	"github.com/flowcore/workflowcore/internal/models"
	"github.com/flowcore/workflowcore/internal/observability"
	"github.com/flowcore/workflowcore/internal/workflow"
)

// runningLister is the narrow slice of SQLiteStore the driver polls;
// declared here (consumer side) rather than depending on the concrete
// store type, matching the Store/Notifier/AgentRunner pattern used
// throughout internal/workflow.
type runningLister interface {
	ListRunningExecutions(ctx context.Context) ([]*models.Execution, error)
}

// executionDriver repeatedly advances every running execution one step
// at a time, since nothing else in the process loops Scheduler.ExecuteStep
// outside of tests. Grounded on the teacher's service/ long-running
// worker-loop shape: a ticker, a context-aware select, per-tick logging
// of failures that doesn't abort the loop.
type executionDriver struct {
	sched    *workflow.Scheduler
	store    runningLister
	logger   *observability.Logger
	interval time.Duration
}

func newExecutionDriver(sched *workflow.Scheduler, store runningLister, logger *observability.Logger, interval time.Duration) *executionDriver {
	return &executionDriver{sched: sched, store: store, logger: logger, interval: interval}
}

func (d *executionDriver) run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *executionDriver) tick(ctx context.Context) {
	execs, err := d.store.ListRunningExecutions(ctx)
	if err != nil {
		d.logger.Error(ctx, "list running executions", "error", err)
		return
	}
	for _, exec := range execs {
		if err := d.sched.ExecuteStep(ctx, exec.ID); err != nil && err != workflow.ErrNotRunning {
			d.logger.Error(ctx, "execute step", "executionId", exec.ID, "error", err)
		}
	}
}
