// Package config loads workflowcore's process configuration: where the
// sqlite database lives, which provider backs each agent, the
// workflow iteration defaults, and the permission policy. Grounded on
// the teacher's internal/config loader (yaml.v3 decode with
// KnownFields strict mode, env-var expansion before parsing) trimmed
// to this service's much smaller surface — config here is a thin
// external collaborator, not a domain model.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is workflowcore's top-level configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Provider   ProviderConfig   `yaml:"provider"`
	Permission PermissionConfig `yaml:"permission"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP/gRPC control surface and the
// Prometheus metrics endpoint (spec section 6 external interfaces).
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
}

// StoreConfig points at the embedded sqlite database (spec section 6
// "a single embedded relational database").
type StoreConfig struct {
	Path          string `yaml:"path"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// WorkflowConfig holds scheduler-wide defaults applied to workflows
// that don't set their own (spec section 5 resource model).
type WorkflowConfig struct {
	DefaultMaxIterations int           `yaml:"default_max_iterations"`
	StepTimeout          time.Duration `yaml:"step_timeout"`
	MaxHandoffDepth      int           `yaml:"max_handoff_depth"`
}

// ProviderConfig selects and authenticates the model provider behind
// the narrow Provider interface (spec section 6).
type ProviderConfig struct {
	// Kind selects the provider implementation: "anthropic", "openai", or "gemini".
	Kind        string        `yaml:"kind"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// APIKey resolves the provider's API key from the environment variable
// named by APIKeyEnv, defaulting to a provider-conventional name.
func (p ProviderConfig) APIKey() string {
	name := p.APIKeyEnv
	if name == "" {
		name = defaultAPIKeyEnv(p.Kind)
	}
	return os.Getenv(name)
}

func defaultAPIKeyEnv(kind string) string {
	switch kind {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// PermissionConfig configures the default policy the permission
// service falls back to when no rule matches (spec section 4.2).
type PermissionConfig struct {
	DefaultMode string   `yaml:"default_mode"` // "allow" | "deny" | "ask"
	AutoApprove []string `yaml:"auto_approve"` // tool names always allowed
	AlwaysAsk   []string `yaml:"always_ask"`   // tool names that always prompt
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "text"
}

// Defaults returns a Config with every field set to a usable default,
// the baseline Load starts from before applying the file on disk.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8090, MetricsPort: 9090},
		Store:  StoreConfig{Path: "workflowcore.sqlite", MigrationsDir: "migrations"},
		Workflow: WorkflowConfig{
			DefaultMaxIterations: 50,
			StepTimeout:          5 * time.Minute,
			MaxHandoffDepth:      5,
		},
		Provider: ProviderConfig{
			Kind:        "anthropic",
			Model:       "claude-sonnet-4-5",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		},
		Permission: PermissionConfig{DefaultMode: "ask"},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads and decodes a YAML configuration file at path, expanding
// ${VAR}/$VAR environment references first, and applying Defaults()
// for any field the file leaves zero. An empty path returns Defaults().
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := decoder.Decode(new(any)); err != io.EOF {
		return Config{}, fmt.Errorf("config: %s has more than one YAML document", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the rest of the service could not
// act on.
func (c Config) Validate() error {
	switch c.Permission.DefaultMode {
	case "allow", "deny", "ask":
	default:
		return fmt.Errorf("config: permission.default_mode %q must be allow, deny, or ask", c.Permission.DefaultMode)
	}
	if c.Workflow.DefaultMaxIterations <= 0 {
		return fmt.Errorf("config: workflow.default_max_iterations must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("config: store.path is required")
	}
	return nil
}
