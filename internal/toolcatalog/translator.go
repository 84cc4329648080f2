package toolcatalog

import "encoding/json"

// ProviderTool is a tool definition shaped for a specific provider
// dialect, ready to hand to that provider's SDK types.
type ProviderTool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// MappedCall is the inverse of ProviderTool: a provider's tool_use
// resolved back to an ECP method invocation.
type MappedCall struct {
	ECPMethod string
	ECPParams map[string]any
}

// Translator adapts between the canonical tool catalog and one
// provider's tool-calling dialect. Implementations are purely
// syntactic: renaming, not validating.
type Translator interface {
	// Dialect names the provider dialect this translator implements.
	Dialect() string
	// ToProviderTools renames canonical tools (and their parameters)
	// into this dialect.
	ToProviderTools(tools []CanonicalTool) []ProviderTool
	// MapToolCall resolves a provider-dialect tool call back to an ECP
	// method invocation. ok is false when providerName is unknown to
	// this dialect.
	MapToolCall(providerName string, providerInput json.RawMessage) (call MappedCall, ok bool)
	// IsSupported reports whether providerName is known to this dialect.
	IsSupported(providerName string) bool
	// GetCanonicalName resolves a provider-dialect name back to its
	// canonical dotted name.
	GetCanonicalName(providerName string) (string, bool)
}

// dialectTable is the shared implementation backing each of the three
// concrete dialects: a name map and a per-canonical-tool parameter
// rename map, both purely syntactic per spec section 4.1.
type dialectTable struct {
	dialect      string
	toProvider   map[string]string // canonical name -> provider name
	fromProvider map[string]string // provider name -> canonical name
	paramNames   map[string]map[string]string // canonical name -> (canonical param -> provider param)
}

func newDialectTable(dialect string, names map[string]string, params map[string]map[string]string) *dialectTable {
	fromProvider := make(map[string]string, len(names))
	for canon, prov := range names {
		fromProvider[prov] = canon
	}
	return &dialectTable{dialect: dialect, toProvider: names, fromProvider: fromProvider, paramNames: params}
}

func (d *dialectTable) Dialect() string { return d.dialect }

func (d *dialectTable) IsSupported(providerName string) bool {
	_, ok := d.fromProvider[providerName]
	return ok
}

func (d *dialectTable) GetCanonicalName(providerName string) (string, bool) {
	canon, ok := d.fromProvider[providerName]
	return canon, ok
}

func (d *dialectTable) ToProviderTools(tools []CanonicalTool) []ProviderTool {
	out := make([]ProviderTool, 0, len(tools))
	for _, t := range tools {
		name, ok := d.toProvider[t.Name]
		if !ok {
			continue
		}
		out = append(out, ProviderTool{
			Name:        name,
			Description: t.Description,
			InputSchema: d.renameSchemaProps(t.Name, t.InputSchema),
		})
	}
	return out
}

func (d *dialectTable) renameSchemaProps(canonicalName string, schema map[string]any) map[string]any {
	rename, ok := d.paramNames[canonicalName]
	if !ok || schema == nil {
		return schema
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return schema
	}
	newProps := make(map[string]any, len(props))
	for k, v := range props {
		if mapped, ok := rename[k]; ok {
			newProps[mapped] = v
		} else {
			newProps[k] = v
		}
	}
	required, _ := schema["required"].([]string)
	newRequired := make([]string, len(required))
	for i, r := range required {
		if mapped, ok := rename[r]; ok {
			newRequired[i] = mapped
		} else {
			newRequired[i] = r
		}
	}
	return map[string]any{
		"type":       schema["type"],
		"properties": newProps,
		"required":   newRequired,
	}
}

func (d *dialectTable) MapToolCall(providerName string, providerInput json.RawMessage) (MappedCall, bool) {
	canon, ok := d.fromProvider[providerName]
	if !ok {
		return MappedCall{}, false
	}
	tool, ok := Catalog[canon]
	if !ok {
		return MappedCall{}, false
	}
	var input map[string]any
	if len(providerInput) > 0 {
		if err := json.Unmarshal(providerInput, &input); err != nil {
			input = map[string]any{}
		}
	}
	params := d.toCanonicalParams(canon, input)
	return MappedCall{ECPMethod: tool.ECPMethod, ECPParams: params}, true
}

func (d *dialectTable) toCanonicalParams(canonicalName string, providerInput map[string]any) map[string]any {
	rename, ok := d.paramNames[canonicalName]
	if !ok {
		return providerInput
	}
	reverse := make(map[string]string, len(rename))
	for canonParam, provParam := range rename {
		reverse[provParam] = canonParam
	}
	out := make(map[string]any, len(providerInput))
	for k, v := range providerInput {
		if canonParam, ok := reverse[k]; ok {
			out[canonParam] = v
		} else {
			out[k] = v
		}
	}
	return out
}
