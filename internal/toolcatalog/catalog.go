// Package toolcatalog holds the canonical ECP tool catalog and the
// per-provider translators that rename tool and parameter names into
// each provider's dialect. Translation is purely syntactic: no
// schema-level validation is performed here, matching spec section 4.1.
package toolcatalog

// Category groups canonical tools by the kind of ECP surface they talk
// to.
type Category string

const (
	CategoryFile     Category = "file"
	CategoryTerminal Category = "terminal"
	CategoryGit      Category = "git"
	CategoryLSP      Category = "lsp"
	CategoryAI       Category = "ai"
	CategoryDocument Category = "document"
)

// CanonicalTool is one entry in the fixed ECP tool catalog.
type CanonicalTool struct {
	Name        string
	Description string
	ECPMethod   string
	InputSchema map[string]any
	Category    Category
}

// schema is a small helper building a JSON-schema-shaped map for a tool
// with the given required string properties, keeping catalog.go
// readable.
func schema(props ...string) map[string]any {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		properties[p] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   props,
	}
}

// Catalog is the fixed set of canonical tools, keyed by dotted name.
var Catalog = buildCatalog()

func buildCatalog() map[string]CanonicalTool {
	tools := []CanonicalTool{
		{Name: "file.read", Description: "Read a file's contents", ECPMethod: "file/read", Category: CategoryFile, InputSchema: schema("path")},
		{Name: "file.write", Description: "Write a file's contents", ECPMethod: "file/write", Category: CategoryFile, InputSchema: schema("path", "content")},
		{Name: "file.edit", Description: "Apply an edit to a file", ECPMethod: "file/edit", Category: CategoryFile, InputSchema: schema("path", "old_text", "new_text")},
		{Name: "file.glob", Description: "Glob for files by pattern", ECPMethod: "file/glob", Category: CategoryFile, InputSchema: schema("pattern")},
		{Name: "file.grep", Description: "Search file contents by pattern", ECPMethod: "file/grep", Category: CategoryFile, InputSchema: schema("pattern")},
		{Name: "file.list", Description: "List a directory", ECPMethod: "file/list", Category: CategoryFile, InputSchema: schema("path")},
		{Name: "file.exists", Description: "Check whether a path exists", ECPMethod: "file/exists", Category: CategoryFile, InputSchema: schema("path")},
		{Name: "file.delete", Description: "Delete a file", ECPMethod: "file/delete", Category: CategoryFile, InputSchema: schema("path")},
		{Name: "file.rename", Description: "Rename or move a file", ECPMethod: "file/rename", Category: CategoryFile, InputSchema: schema("path", "new_path")},
		{Name: "file.mkdir", Description: "Create a directory", ECPMethod: "file/mkdir", Category: CategoryFile, InputSchema: schema("path")},
		{Name: "file.deleteDir", Description: "Delete a directory", ECPMethod: "file/deleteDir", Category: CategoryFile, InputSchema: schema("path")},
		{Name: "terminal.execute", Description: "Run a shell command to completion", ECPMethod: "terminal/execute", Category: CategoryTerminal, InputSchema: schema("command")},
		{Name: "terminal.spawn", Description: "Start a long-running shell process", ECPMethod: "terminal/spawn", Category: CategoryTerminal, InputSchema: schema("command")},
		{Name: "git.status", Description: "Show working tree status", ECPMethod: "git/status", Category: CategoryGit, InputSchema: schema()},
		{Name: "git.diff", Description: "Show a diff", ECPMethod: "git/diff", Category: CategoryGit, InputSchema: schema("path")},
		{Name: "lsp.definition", Description: "Jump to a symbol's definition", ECPMethod: "lsp/definition", Category: CategoryLSP, InputSchema: schema("path", "symbol")},
		{Name: "lsp.references", Description: "Find references to a symbol", ECPMethod: "lsp/references", Category: CategoryLSP, InputSchema: schema("path", "symbol")},
		{Name: "ai.todo.get", Description: "Read the current todo list", ECPMethod: "ai/todo/get", Category: CategoryAI, InputSchema: schema()},
		{Name: "ai.todo.write", Description: "Replace the current todo list", ECPMethod: "ai/todo/write", Category: CategoryAI, InputSchema: schema("items")},
		{Name: "ai.document.create", Description: "Create a spec-adjacent document", ECPMethod: "chat/document/create", Category: CategoryDocument, InputSchema: schema("title", "content")},
		{Name: "ai.document.update", Description: "Update a document", ECPMethod: "chat/document/update", Category: CategoryDocument, InputSchema: schema("id", "content")},
		{Name: "ai.document.list", Description: "List documents", ECPMethod: "chat/document/list", Category: CategoryDocument, InputSchema: schema()},
		{Name: "ai.document.get", Description: "Fetch a document", ECPMethod: "chat/document/get", Category: CategoryDocument, InputSchema: schema("id")},
		{Name: "ai.document.search", Description: "Search documents", ECPMethod: "chat/document/search", Category: CategoryDocument, InputSchema: schema("query")},
		{Name: "ai.plan.create", Description: "Create a plan", ECPMethod: "chat/plan/create", Category: CategoryDocument, InputSchema: schema("title")},
		{Name: "ai.plan.update", Description: "Update a plan", ECPMethod: "chat/plan/update", Category: CategoryDocument, InputSchema: schema("id", "content")},
		{Name: "ai.plan.list", Description: "List plans", ECPMethod: "chat/plan/list", Category: CategoryDocument, InputSchema: schema()},
		{Name: "ai.plan.content", Description: "Fetch a plan's content", ECPMethod: "chat/plan/content", Category: CategoryDocument, InputSchema: schema("id")},
		{Name: "ai.spec.create", Description: "Create a spec document", ECPMethod: "chat/spec/create", Category: CategoryDocument, InputSchema: schema("title")},
		{Name: "ai.spec.update", Description: "Update a spec document", ECPMethod: "chat/spec/update", Category: CategoryDocument, InputSchema: schema("id", "content")},
		{Name: "ai.spec.list", Description: "List spec documents", ECPMethod: "chat/spec/list", Category: CategoryDocument, InputSchema: schema()},
		{Name: "ai.message.search", Description: "Search chat message history", ECPMethod: "chat/message/search", Category: CategoryAI, InputSchema: schema("query")},
	}
	out := make(map[string]CanonicalTool, len(tools))
	for _, t := range tools {
		out[t.Name] = t
	}
	return out
}

// List returns the catalog as a slice, in a stable order, for callers
// that need to enumerate it (e.g. ToProviderTools).
func List() []CanonicalTool {
	out := make([]CanonicalTool, 0, len(Catalog))
	for _, name := range catalogOrder {
		out = append(out, Catalog[name])
	}
	return out
}

var catalogOrder = func() []string {
	names := make([]string, 0, len(Catalog))
	for n := range Catalog {
		names = append(names, n)
	}
	return names
}()

// ReadOnlyFileTools lists the read-only file tools the Permission
// Service pre-approves at global scope by default (spec section 4.2).
// Named by their Anthropic-dialect surface name, matching how
// approvals are recorded against the dialect the session is using.
var ReadOnlyFileTools = []string{"Read", "Glob", "Grep", "LS", "LSP"}
