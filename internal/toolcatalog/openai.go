package toolcatalog

// openaiNames renames canonical tools into OpenAI's snake_case
// function-calling vocabulary.
var openaiNames = map[string]string{
	"file.read":          "read_file",
	"file.write":         "write_file",
	"file.edit":          "edit_file",
	"file.glob":          "glob",
	"file.grep":          "grep",
	"file.list":          "list_files",
	"file.exists":        "file_exists",
	"file.delete":        "delete_file",
	"file.rename":        "rename_file",
	"file.mkdir":         "mkdir",
	"file.deleteDir":     "delete_dir",
	"terminal.execute":   "bash",
	"terminal.spawn":     "bash_spawn",
	"git.status":         "git_status",
	"git.diff":           "git_diff",
	"lsp.definition":     "lsp_definition",
	"lsp.references":     "lsp_references",
	"ai.todo.get":        "todo_get",
	"ai.todo.write":      "todo_write",
	"ai.document.create": "document_create",
	"ai.document.update": "document_update",
	"ai.document.list":   "document_list",
	"ai.document.get":    "document_get",
	"ai.document.search": "document_search",
	"ai.plan.create":     "plan_create",
	"ai.plan.update":     "plan_update",
	"ai.plan.list":       "plan_list",
	"ai.plan.content":    "plan_content",
	"ai.spec.create":     "spec_create",
	"ai.spec.update":     "spec_update",
	"ai.spec.list":       "spec_list",
	"ai.message.search":  "message_search",
}

var openaiParams = map[string]map[string]string{
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

// NewOpenAITranslator returns the OpenAI-dialect Translator.
func NewOpenAITranslator() Translator {
	return newDialectTable("openai", openaiNames, openaiParams)
}
