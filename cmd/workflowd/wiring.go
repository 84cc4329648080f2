package main

import (
	"context"
	"fmt"

	"github.com/flowcore/workflowcore/internal/agentrunner"
	"github.com/flowcore/workflowcore/internal/agents"
	"github.com/flowcore/workflowcore/internal/clock"
	"github.com/flowcore/workflowcore/internal/config"
	"github.com/flowcore/workflowcore/internal/ecp"
	"github.com/flowcore/workflowcore/internal/metrics"
	"github.com/flowcore/workflowcore/internal/notify"
	"github.com/flowcore/workflowcore/internal/observability"
	"github.com/flowcore/workflowcore/internal/permission"
	"github.com/flowcore/workflowcore/internal/provider"
	"github.com/flowcore/workflowcore/internal/store"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
	"github.com/flowcore/workflowcore/internal/toolexec"
	"github.com/flowcore/workflowcore/internal/workflow"
)

// app bundles every collaborator serve and migrate wire, so tests and
// subcommands can construct it once from a loaded Config.
type app struct {
	cfg       config.Config
	store     *store.SQLiteStore
	bus       *notify.Bus
	metrics   *metrics.Metrics
	scheduler *workflow.Scheduler
}

// disabledECP is the ecp.Client used in place of a real transport:
// concrete ECP connections are out of scope for this module (spec
// section 1), so any tool that isn't a custom or hidden handler fails
// with a clear error instead of reaching out over the network.
type disabledECP struct{}

func (disabledECP) Request(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("ecp: no transport configured for method %q", method)
}

func runMigrate(cfg config.Config) error {
	return store.Migrate(cfg.Store.Path, cfg.Store.MigrationsDir)
}

// buildApp wires every collaborating service behind the Scheduler,
// grounded on the teacher's gateway bring-up: config first, storage
// second, then the services that depend on both.
func buildApp(cfg config.Config, logger *observability.Logger) (*app, error) {
	if err := runMigrate(cfg); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	bus := notify.NewBus(logger)
	m := metrics.New()

	registry := agents.New()
	perms := permission.NewService(clock.Real{})
	translator := toolcatalog.NewTranslator(cfg.Provider.Kind)
	executor := toolexec.NewExecutor(translator, disabledECP{})

	prov := provider.NewFake(cfg.Provider.Model)
	runner := agentrunner.New(registry, perms, prov, translator, executor)

	sched := workflow.NewScheduler(db, bus, registry, perms, runner, clock.Real{})
	sched.SetMetrics(m)

	return &app{cfg: cfg, store: db, bus: bus, metrics: m, scheduler: sched}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
