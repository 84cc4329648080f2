// Package toolexec implements the Tool Executor (spec section 4.3):
// routes tool invocations through the active Translator to ECP methods,
// injects the execution's working directory, and classifies terminal
// failures by exit code. Grounded on the teacher's
// internal/agent/tool_registry.go / executor.go / tool_exec.go handler
// dispatch shape.
package toolexec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowcore/workflowcore/internal/ecp"
	"github.com/flowcore/workflowcore/internal/toolcatalog"
)

// CallerType distinguishes a human-initiated tool call from an
// agent-initiated one, so the ECP boundary can attribute actions.
type CallerType string

const (
	CallerHuman CallerType = "human"
	CallerAgent CallerType = "agent"
)

// Caller identifies who is invoking a tool.
type Caller struct {
	Type    CallerType
	AgentID string
}

// ToolUse is one tool invocation request.
type ToolUse struct {
	ID     string
	Name   string
	Input  map[string]any
	Caller Caller
	// Cwd is the caller-supplied working directory override, if any.
	Cwd string
}

// Result is the outcome of executing a ToolUse.
type Result struct {
	Success bool
	Result  map[string]any
	Error   string
}

// Handler is a custom or hidden tool implementation that bypasses
// translation entirely (e.g. workflow-internal tools like agent
// handoff).
type Handler func(ctx context.Context, use ToolUse) (Result, error)

// Config is a per-tool execution override layered over the executor
// default (spec section 5 names a mandatory per-call timeout but
// leaves its configuration surface open; grounded on the teacher's
// ExecutorConfig/ToolConfig split).
type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryBackoff time.Duration
}

// DefaultConfig mirrors the teacher's ExecutorConfig defaults.
var DefaultConfig = Config{Timeout: 30 * time.Second, MaxAttempts: 1, RetryBackoff: 100 * time.Millisecond}

// Executor routes tool invocations to custom handlers, hidden handlers,
// or (the common case) the ECP transport via the active Translator.
type Executor struct {
	translator toolcatalog.Translator
	ecp        ecp.Client

	custom  map[string]Handler
	hidden  map[string]Handler
	perTool map[string]Config

	// Cwd resolves the execution's current working directory for
	// terminal-tool cwd injection. Nil means no injection.
	Cwd func(executionID string) (string, bool)
}

// NewExecutor returns an Executor using translator for the current
// dialect and ecpClient as the transport.
func NewExecutor(translator toolcatalog.Translator, ecpClient ecp.Client) *Executor {
	return &Executor{
		translator: translator,
		ecp:        ecpClient,
		custom:     map[string]Handler{},
		hidden:     map[string]Handler{},
		perTool:    map[string]Config{},
	}
}

// RegisterHandler installs a custom, user-visible tool handler.
func (e *Executor) RegisterHandler(name string, h Handler) { e.custom[name] = h }

// RegisterHiddenHandler installs a workflow-internal tool handler, such
// as the agent-handoff tool, which is invisible to the catalog but
// still reachable by name.
func (e *Executor) RegisterHiddenHandler(name string, h Handler) { e.hidden[name] = h }

// SetToolConfig overrides the executor default for a specific tool name.
func (e *Executor) SetToolConfig(name string, cfg Config) { e.perTool[name] = cfg }

func (e *Executor) configFor(name string) Config {
	if cfg, ok := e.perTool[name]; ok {
		return cfg
	}
	return DefaultConfig
}

// Execute runs one tool invocation through the dispatch order described
// in spec section 4.3. All errors are caught and returned as
// {success:false, error}.
func (e *Executor) Execute(ctx context.Context, use ToolUse, executionID string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if h, ok := e.custom[use.Name]; ok {
		return e.runHandler(ctx, h, use)
	}
	if h, ok := e.hidden[use.Name]; ok {
		return e.runHandler(ctx, h, use)
	}
	return e.executeViaECP(ctx, use, executionID)
}

func (e *Executor) runHandler(ctx context.Context, h Handler, use ToolUse) Result {
	cfg := e.configFor(use.Name)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	res, err := h(ctx, use)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return res
}

func (e *Executor) executeViaECP(ctx context.Context, use ToolUse, executionID string) Result {
	inputJSON, err := json.Marshal(use.Input)
	if err != nil {
		return Result{Success: false, Error: "invalid tool input: " + err.Error()}
	}
	call, ok := e.translator.MapToolCall(use.Name, inputJSON)
	if !ok {
		return Result{Success: false, Error: "unknown tool: " + use.Name}
	}

	isTerminal := call.ECPMethod == "terminal/execute" || call.ECPMethod == "terminal/spawn"
	if isTerminal {
		e.injectCwd(call.ECPParams, use.Cwd, executionID)
	}

	cfg := e.configFor(use.Name)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	raw, err := e.ecp.Request(ctx, call.ECPMethod, call.ECPParams)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	if isTerminal {
		if code := ecp.ExitCode(raw); code != 0 {
			failed := map[string]any{"_commandFailed": true}
			for k, v := range raw {
				failed[k] = v
			}
			return Result{Success: false, Error: fmt.Sprintf("exit code %d", code), Result: failed}
		}
	}

	return Result{Success: true, Result: raw}
}

func (e *Executor) injectCwd(params map[string]any, callerCwd, executionID string) {
	if callerCwd != "" {
		params["cwd"] = callerCwd
		return
	}
	if _, has := params["cwd"]; has {
		return
	}
	if e.Cwd == nil {
		return
	}
	if cwd, ok := e.Cwd(executionID); ok {
		params["cwd"] = cwd
	}
}
