package toolcatalog

// anthropicNames renames canonical tools into Claude's PascalCase tool
// vocabulary, grounded on the Read/Glob/Grep/LS naming nexus's own
// default-approved tool list already uses.
var anthropicNames = map[string]string{
	"file.read":          "Read",
	"file.write":         "Write",
	"file.edit":          "Edit",
	"file.glob":          "Glob",
	"file.grep":          "Grep",
	"file.list":          "LS",
	"file.exists":        "Exists",
	"file.delete":        "Delete",
	"file.rename":        "Rename",
	"file.mkdir":         "Mkdir",
	"file.deleteDir":     "DeleteDir",
	"terminal.execute":   "Bash",
	"terminal.spawn":     "BashSpawn",
	"git.status":         "GitStatus",
	"git.diff":           "GitDiff",
	"lsp.definition":     "LSP",
	"lsp.references":     "LSPReferences",
	"ai.todo.get":        "TodoRead",
	"ai.todo.write":      "TodoWrite",
	"ai.document.create": "DocumentCreate",
	"ai.document.update": "DocumentUpdate",
	"ai.document.list":   "DocumentList",
	"ai.document.get":    "DocumentGet",
	"ai.document.search": "DocumentSearch",
	"ai.plan.create":     "PlanCreate",
	"ai.plan.update":     "PlanUpdate",
	"ai.plan.list":       "PlanList",
	"ai.plan.content":    "PlanContent",
	"ai.spec.create":     "SpecCreate",
	"ai.spec.update":     "SpecUpdate",
	"ai.spec.list":       "SpecList",
	"ai.message.search":  "MessageSearch",
}

var anthropicParams = map[string]map[string]string{
	"file.read":      {"path": "file_path"},
	"file.write":     {"path": "file_path"},
	"file.edit":      {"path": "file_path"},
	"file.exists":    {"path": "file_path"},
	"file.delete":    {"path": "file_path"},
	"file.mkdir":     {"path": "file_path"},
	"file.deleteDir": {"path": "file_path"},
	"file.rename":    {"path": "file_path", "new_path": "new_file_path"},
	"file.list":      {"path": "file_path"},
	"lsp.definition": {"path": "file_path"},
	"lsp.references": {"path": "file_path"},
	"git.diff":       {"path": "file_path"},
}

// NewAnthropicTranslator returns the Claude-dialect Translator. It is
// also the fallback translator returned by NewTranslator for unknown
// dialect names, per spec section 4.1.
func NewAnthropicTranslator() Translator {
	return newDialectTable("anthropic", anthropicNames, anthropicParams)
}
