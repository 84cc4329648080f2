package provider

import "strings"

// ResolveProviderID maps an agent's model string to a provider id by
// prefix match (spec section 4.5), falling back to defaultID when no
// prefix matches. Model selection heuristics beyond this fixed prefix
// table are a named non-goal.
func ResolveProviderID(model, defaultID string) string {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return "claude"
	case strings.HasPrefix(model, "gpt-"):
		return "openai"
	case strings.HasPrefix(model, "gemini-"):
		return "gemini"
	case strings.HasPrefix(model, "llama-"):
		return "ollama"
	default:
		return defaultID
	}
}
