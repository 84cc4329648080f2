package main

import (
	"path/filepath"
	"testing"

	"github.com/flowcore/workflowcore/internal/config"
	"github.com/flowcore/workflowcore/internal/observability"
)

func TestBuildApp_WiresAndMigrates(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Store.Path = filepath.Join(dir, "workflowcore.sqlite")
	cfg.Store.MigrationsDir = "../../internal/store/migrations"

	logger := observability.NewLogger(observability.LogConfig{Level: "error"})

	a, err := buildApp(cfg, logger)
	if err != nil {
		t.Fatalf("buildApp() error = %v", err)
	}
	defer a.Close()

	if a.scheduler == nil {
		t.Fatal("buildApp() scheduler is nil")
	}
	if a.metrics == nil {
		t.Fatal("buildApp() metrics is nil")
	}
}
