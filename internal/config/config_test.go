package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	want := Defaults()
	if cfg.Server != want.Server || cfg.Store != want.Store || cfg.Workflow != want.Workflow ||
		cfg.Provider != want.Provider || cfg.Logging != want.Logging ||
		cfg.Permission.DefaultMode != want.Permission.DefaultMode {
		t.Fatalf("Load(\"\") = %+v, want Defaults() %+v", cfg, want)
	}
}

func TestLoad_OverridesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("WORKFLOWCORE_DB_PATH", "/tmp/from-env.sqlite")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
store:
  path: ${WORKFLOWCORE_DB_PATH}
workflow:
  default_max_iterations: 25
provider:
  kind: openai
  model: gpt-4o
permission:
  default_mode: allow
  auto_approve: [read_file]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Path != "/tmp/from-env.sqlite" {
		t.Fatalf("Store.Path = %q, want env-expanded path", cfg.Store.Path)
	}
	if cfg.Workflow.DefaultMaxIterations != 25 {
		t.Fatalf("Workflow.DefaultMaxIterations = %d, want 25", cfg.Workflow.DefaultMaxIterations)
	}
	if cfg.Provider.Kind != "openai" || cfg.Provider.Model != "gpt-4o" {
		t.Fatalf("Provider = %+v, want openai/gpt-4o", cfg.Provider)
	}
	if cfg.Permission.DefaultMode != "allow" || len(cfg.Permission.AutoApprove) != 1 {
		t.Fatalf("Permission = %+v", cfg.Permission)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != Defaults().Server.Port {
		t.Fatalf("Server.Port = %d, want default %d", cfg.Server.Port, Defaults().Server.Port)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("bogus_top_level: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() with unknown field, want error")
	}
}

func TestLoad_RejectsInvalidPermissionMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("permission:\n  default_mode: maybe\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() with invalid default_mode, want error")
	}
}

func TestProviderConfig_APIKeyDefaultsByKind(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-anthropic")
	p := ProviderConfig{Kind: "anthropic"}
	if got := p.APIKey(); got != "sk-test-anthropic" {
		t.Fatalf("APIKey() = %q, want sk-test-anthropic", got)
	}

	t.Setenv("CUSTOM_KEY", "custom-value")
	p2 := ProviderConfig{Kind: "anthropic", APIKeyEnv: "CUSTOM_KEY"}
	if got := p2.APIKey(); got != "custom-value" {
		t.Fatalf("APIKey() with explicit env = %q, want custom-value", got)
	}
}
