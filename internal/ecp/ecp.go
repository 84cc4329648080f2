// Package ecp defines the narrow interface to the host IDE's extension
// control protocol transport. The transport itself (JSON-RPC over
// whatever channel the IDE uses) is an external collaborator, out of
// scope per spec section 1; this package only specifies the contract
// the Tool Executor depends on.
package ecp

import "context"

// TerminalResult is the shape terminal/* methods return, used by the
// Tool Executor to classify exit-code failures (spec section 4.3 step 5).
type TerminalResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Client is the host IDE's control-protocol surface as consumed by the
// core: a single JSON-RPC-style request/response method.
type Client interface {
	// Request invokes method with params and returns the raw result.
	// Implementations translate transport failures into an error; the
	// Tool Executor treats any error as a Transport/ECP failure (spec
	// section 7).
	Request(ctx context.Context, method string, params map[string]any) (result map[string]any, err error)
}

// ExitCode extracts the terminal exit code from a raw ECP result map,
// defaulting to 0 when absent (e.g. non-terminal methods).
func ExitCode(result map[string]any) int {
	switch v := result["exitCode"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
