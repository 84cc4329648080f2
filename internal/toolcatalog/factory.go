package toolcatalog

import "strings"

// NewTranslator returns the Translator for the named dialect. Unknown
// dialect names fall back to the Anthropic-style translator, per spec
// section 4.1 ("A fallback translator (Anthropic-style) is used when
// no specific dialect matches").
func NewTranslator(dialect string) Translator {
	switch strings.ToLower(dialect) {
	case "openai":
		return NewOpenAITranslator()
	case "google", "gemini":
		return NewGoogleTranslator()
	case "anthropic", "claude":
		return NewAnthropicTranslator()
	default:
		return NewAnthropicTranslator()
	}
}
